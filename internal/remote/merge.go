package remote

import "grocery-cli/internal/model"

// Reconcile decides which collection survives a push.
//
// The rule is last-writer-wins at collection granularity: when server is non-empty and its
// newest updatedAt is strictly after the newest updatedAt in local (the pre-push snapshot),
// the whole local collection is replaced by server. Otherwise local is returned untouched.
//
// Known limitation: one newer server item is enough to discard every local edit made after
// a stale server snapshot. There is no per-item merge.
func Reconcile(local, server []model.Item) (result []model.Item, replaced bool) {
	if len(server) == 0 {
		return local, false
	}
	if model.LatestUpdate(server).After(model.LatestUpdate(local)) {
		return server, true
	}
	return local, false
}
