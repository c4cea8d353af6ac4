package engagement

import (
	"io"
	"sync"
)

// ProgressObserver is notified while a request body is sent and a response
// body is read. contentLength is -1 when unknown.
type ProgressObserver interface {
	OnUploadProgress(bytesWritten, contentLength int64, done bool)
	OnDownloadProgress(bytesRead, contentLength int64, done bool)
}

type progressReader struct {
	r      io.Reader
	length int64
	report func(n, length int64, done bool)

	mu       sync.Mutex
	total    int64
	finished bool
}

func newProgressReader(r io.Reader, length int64, report func(n, length int64, done bool)) *progressReader {
	return &progressReader{r: r, length: length, report: report}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)

	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return n, err
	}
	p.total += int64(n)
	done := err == io.EOF || (p.length >= 0 && p.total >= p.length)
	p.finished = done
	total := p.total
	p.mu.Unlock()

	if n > 0 || done {
		p.report(total, p.length, done)
	}
	return n, err
}

type progressReadCloser struct {
	*progressReader
	c io.Closer
}

func (p progressReadCloser) Close() error {
	return p.c.Close()
}
