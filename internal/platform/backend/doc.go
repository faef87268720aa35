// Package backend implements the client for the portfolio backend's REST API
// and its websocket message stream. The backend does the heavy lifting
// (fetching transactions from chain indexers, decoding them into history
// events); this package only speaks its wire protocol: synchronous calls
// return envelope-wrapped results, asynchronous calls return a task id that
// callers poll through TaskStatus.
package backend
