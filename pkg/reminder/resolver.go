package reminder

import "github.com/ogulcanaydogan/credit-reminder/pkg/model"

// ResolveOwners returns the account ids whose credits belong to acc: its own id
// first, then its linked account when one is set. Links are followed one hop
// only; the linked account's own link is never consulted.
func ResolveOwners(acc model.Account) []string {
	owners := []string{acc.ID.ID}
	if linked := acc.LinkedAccountID; linked != "" && linked != acc.ID.ID {
		owners = append(owners, linked)
	}
	return owners
}
