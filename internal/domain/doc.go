// Package domain defines the core entities, the invariants that hold for them,
// and the repository and gateway interfaces the application layer depends on.
//
// Files are grouped by concept (user.go, ledger.go, payment.go, ...). Apart from
// small pure helpers such as HaversineKm or Purchase.Credits there is no
// implementation code here.
package domain
