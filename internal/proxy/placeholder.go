package proxy

// Canned placeholder responses sent to the client on proxy-level failures.
var (
	placeholderBadRequest = []byte("HTTP/1.1 400 Bad Request\r\n" +
		"Content-Length: 0\r\n" +
		"Connection: close\r\n\r\n")

	placeholderNotFound = []byte("HTTP/1.1 404 Not Found\r\n" +
		"Content-Length: 0\r\n" +
		"Connection: close\r\n\r\n")
)
