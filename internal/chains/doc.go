// Package chains resolves chain metadata: which chains the backend can sync
// transactions for and how chain ids map to backend chain names. The data is
// fetched from the backend once and served from memory afterwards; a static
// table covers startup before the backend is reachable.
package chains
