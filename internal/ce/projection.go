package ce

import (
	"github.com/roach88/dapseq/internal/dap"
)

// Project marks the fields named by paths for transmission and clears every
// other field. Selecting a field selects its enclosing sequences; selecting a
// sequence selects all of its fields. With no paths the whole tree is
// selected.
func Project(top *dap.Sequence, paths ...string) error {
	if len(paths) == 0 {
		return setAll(top, true)
	}
	if err := setAll(top, false); err != nil {
		return err
	}
	for _, p := range paths {
		v, err := Lookup(top, p)
		if err != nil {
			return err
		}
		if err := setAll(v, true); err != nil {
			return err
		}
		for parent := v.Parent(); parent != nil; parent = parent.Parent() {
			parent.SetSendP(true)
			if parent == top {
				break
			}
		}
	}
	top.SetSendP(true)
	return nil
}

func setAll(v dap.Variable, send bool) error {
	return dap.Walk(v, func(x dap.Variable) error {
		x.SetSendP(send)
		return nil
	})
}
