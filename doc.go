// Package patter provides the dispatch kernel for a multi-platform
// chat bot: scoped hook and command registration, ordered dispatch,
// and an observed, field-aware cache of user and group records.
//
// The core code is in packages 'scope' and 'kernel'.  Storage
// backends live under 'storage', platform transports under 'adapter',
// and a daemon in 'cmd/patter'.
package patter
