// Package domain contains the core types shared by the sync pipeline,
// the backend client, and the API layer: tracked accounts, chain metadata,
// and decoded history events. These types carry no behavior beyond
// validation and comparison so that every other package can depend on them
// without cycles.
package domain
