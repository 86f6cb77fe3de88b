// Package comm provides the collective layer ranks use to coordinate: rank
// identity, barriers, a collective abort and orderly finalization.
//
// Two worlds implement Communicator:
//
//   - LocalWorld runs every rank as a goroutine in one process.
//   - SocketWorld runs one process per rank. Rank 0 hosts a socket.io
//     coordinator and every rank, rank 0 included, connects to it as a
//     client.
//
// Abort is collective: once any rank aborts, every rank's pending and
// future barriers fail with ErrAborted and the world's exit hook runs. In
// a SocketWorld the exit hook terminates each process.
package comm
