package container

// WalkFunc is called for each object during traversal.
// path is the full path to the object.
// obj is either *Group or *Blob.
// err is any error encountered opening the object.
// Return nil to continue walking, SkipGroup to skip a group's members, or
// any other error to stop.
type WalkFunc func(path string, obj any, err error) error

// SkipGroup can be returned from a WalkFunc for a group to skip its members.
var SkipGroup = walkSignal("skip group")

type walkSignal string

func (s walkSignal) Error() string { return string(s) }

// Walk traverses all objects (groups and blobs) in the hierarchy starting
// from g, in member order. The callback is called for each group and blob,
// including the starting group.
//
// Example:
//
//	container.Walk(f.Root(), func(path string, obj any, err error) error {
//		if err != nil {
//			return err
//		}
//		if b, ok := obj.(*container.Blob); ok {
//			fmt.Println(path, b.TypeName(), b.Shape())
//		}
//		return nil
//	})
func Walk(g *Group, fn WalkFunc) error {
	err := walkGroup(g, fn)
	if err == SkipGroup {
		return nil
	}
	return err
}

func walkGroup(g *Group, fn WalkFunc) error {
	if err := fn(g.Path(), g, nil); err != nil {
		return err
	}

	members, err := g.Members()
	if err != nil {
		return err
	}

	for _, name := range members {
		childPath := joinPath(g.Path(), name)
		obj, err := g.child(name)
		if err != nil {
			if err := fn(childPath, nil, err); err != nil {
				return err
			}
			continue
		}

		switch o := obj.(type) {
		case *Group:
			if err := walkGroup(o, fn); err != nil && err != SkipGroup {
				return err
			}
		default:
			if err := fn(childPath, o, nil); err != nil {
				return err
			}
		}
	}

	return nil
}
