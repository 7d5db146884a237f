// Package tlsroots provides TLS certificate management for Blobnom.
//
// Two concerns live here:
//
//   - Pool: trusted roots for client-side verification. blobnom-cli
//     builds one from the system store plus any --cacert file when
//     dialing tls:// cache addresses or the https:// admin API.
//   - Watcher: the serving certificate for the cache server's TLS
//     listener, reloaded via fsnotify when the files on disk rotate
//     and swapped in atomically.
//
// The cache server wires Watcher.GetCertificate into its TLS listener
// so certificates rotate without dropping connections.
//
// @design DS-0501
package tlsroots
