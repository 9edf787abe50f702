package dbase

import "io"

// GenericIO implements the IO interface for custom handles, e.g. in-memory buffers.
// The handles are closed with the table if they implement io.Closer.
type GenericIO struct {
	Handle        io.ReadWriteSeeker
	RelatedHandle io.ReadWriteSeeker
}

func (g GenericIO) Open(config *Config, memo bool) (Handle, error) {
	return g.handle(memo)
}

func (g GenericIO) Create(config *Config, memo bool) (Handle, error) {
	return g.handle(memo)
}

func (g GenericIO) handle(memo bool) (Handle, error) {
	if memo {
		if g.RelatedHandle == nil {
			return nil, newErrorf("dbase-io-generic-handle-1", "%w: missing related handle", ErrNoFPT)
		}
		return wrapHandle(g.RelatedHandle), nil
	}
	if g.Handle == nil {
		return nil, newErrorf("dbase-io-generic-handle-2", "%w: missing handle", ErrNoDBF)
	}
	return wrapHandle(g.Handle), nil
}

// nopCloser adds a no-op Close to an io.ReadWriteSeeker
type nopCloser struct {
	io.ReadWriteSeeker
}

func (nopCloser) Close() error {
	return nil
}

func wrapHandle(rws io.ReadWriteSeeker) Handle {
	if h, ok := rws.(Handle); ok {
		return h
	}
	return nopCloser{rws}
}
