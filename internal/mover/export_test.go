package mover

func SetRename(m *Mover, fn func(src, dst string) error) { m.ops.rename = fn }

func SetCopy(m *Mover, fn func(src, dst string) error) { m.ops.copy = fn }

func SetRemove(m *Mover, fn func(path string) error) { m.ops.remove = fn }

func RenameNoReplace(src, dst string) error { return renameNoReplace(src, dst) }
