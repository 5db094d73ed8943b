// Package dropservice contains the drop/claim arbitration engine of
// moveserver.
//
// Drops are location-anchored rewards; each user may claim a drop once. The
// module keeps domain/application logic decoupled from persistence and the
// request layer through ports and adapter composition.
package dropservice
