// Package domain holds the core entities shared across the digest
// service: subscribers, delivery reports, and digest content values.
package domain
