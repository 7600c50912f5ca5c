package inventory

// Deposit merges st into the view scanning slots by increasing index: each
// stackable slot is topped up to its stack size, and the first empty slot
// encountered absorbs whatever remains. Whatever cannot be placed is returned
// as leftover rather than silently dropped; nil means everything fit.
func (v *View) Deposit(st *ItemStack) *ItemStack {
	if st == nil || st.count == 0 {
		return nil
	}
	rest := st.count
	for id := 0; id < v.Size() && rest > 0; id++ {
		cur, err := v.GetItem(id)
		if err != nil {
			break
		}
		switch {
		case cur == nil:
			_ = v.SetItem(id, st.Copy(rest))
			rest -= min(rest, st.StackSize())
		case cur.Stackable(st):
			transfer := min(cur.StackSize()-cur.count, rest)
			if transfer > 0 {
				next := cur.Copy(cur.count + transfer)
				_ = v.SetItem(id, next)
				rest -= transfer
			}
		}
	}
	if rest == 0 {
		return nil
	}
	return st.Copy(rest)
}

// Withdraw drains stacks matching st in increasing slot order and returns the
// quantity it could not remove; nil means the full count was removed.
func (v *View) Withdraw(st *ItemStack) *ItemStack {
	if st == nil || st.count == 0 {
		return nil
	}
	rest := st.count
	for id := 0; id < v.Size() && rest > 0; id++ {
		cur, err := v.GetItem(id)
		if err != nil {
			break
		}
		if !cur.Stackable(st) {
			continue
		}
		transfer := min(cur.count, rest)
		_ = v.SetItem(id, cur.Copy(cur.count-transfer))
		rest -= transfer
	}
	if rest == 0 {
		return nil
	}
	return st.Copy(rest)
}
