// Package renameclient speaks the request/response HTTP contract of the
// identifier-rename inference server.
//
// It contains:
//   - [Client] with [Client.Suggest] (POST /rename/) and [Client.Ping] (GET /)
//   - typed failures: [StatusError], [NoResponseError], [RequestError]
//
// The base URL is resolved on every request, so a settings change takes
// effect without rebuilding the client. The server's model and ranking are
// opaque; this package only moves JSON.
package renameclient
