package server

import (
	"fmt"
	"net"
)

// writeFrame emits one multipart segment: the boundary line, the
// per-part headers, the JPEG bytes, then a trailing CRLF pair, exactly the
// four raw writes digiKam's clientWriteMultithreaded performs via
// writeInSocket. A single net.Conn.Write per segment would coalesce
// just as well, but splitting it mirrors the reference byte-for-byte in
// case an intermediary proxy expects the same packet boundaries.
func writeFrame(conn net.Conn, jpeg []byte) error {
	if _, err := conn.Write([]byte(boundary + "\r\n")); err != nil {
		return err
	}
	header := fmt.Sprintf("Content-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg))
	if _, err := conn.Write([]byte(header)); err != nil {
		return err
	}
	if _, err := conn.Write(jpeg); err != nil {
		return err
	}
	if _, err := conn.Write([]byte("\r\n\r\n")); err != nil {
		return err
	}
	return nil
}
