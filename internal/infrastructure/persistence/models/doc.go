// Package models contains GORM persistence models that map to database tables.
// Domain types carry no GORM tags; each model has ToDomain/FromDomain mappers
// and repositories only ever read and write models.
//
// Optional stock-key components (variant, location, bin) are stored as the
// nil UUID rather than NULL so that the five-column unique index on
// stock_records treats "not set" as a value.
//
// Files:
//   - base.go: BaseModel and AggregateModel
//   - inventory.go: stock records, warehouses, locations, bins, transfers
//   - trade.go: sales, payments, returns, purchase orders, goods receipts
//   - partner.go: customers
//   - audit.go: the append-only audit log
//   - outbox.go: transactional outbox entries
package models
