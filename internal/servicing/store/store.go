// Package store persists mortgages and their payment records.
//
// Both implementations enforce one mortgage per application and serialize
// Execute per mortgage: the in-memory store under its write lock, Postgres
// with SELECT ... FOR UPDATE plus a version check on write.
package store
