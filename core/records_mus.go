package core

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// RecordMUS is the MUS serializer for Record.
// Dates are stored as Unix microseconds in UTC. A nil embedding is stored
// with length -1 so that it survives a round trip distinct from an empty one.
var RecordMUS = recordMUS{}

// VectorMUS is the MUS serializer for Vector.
var VectorMUS = vectorMUS{}

type recordMUS struct{}

func (s recordMUS) Marshal(v Record, bs []byte) (n int) {
	n = ord.String.Marshal(string(v.ID), bs)
	n += ord.String.Marshal(v.Content, bs[n:])
	n += ord.String.Marshal(v.Subject, bs[n:])
	n += varint.Int64.Marshal(v.Date.UnixMicro(), bs[n:])
	return n + VectorMUS.Marshal(v.Embedding, bs[n:])
}

func (s recordMUS) Unmarshal(bs []byte) (v Record, n int, err error) {
	var (
		str   string
		micro int64
		n1    int
	)
	str, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.ID = ID(str)
	v.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Subject, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	micro, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Date = time.UnixMicro(micro).UTC()
	v.Embedding, n1, err = VectorMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s recordMUS) Size(v Record) (size int) {
	size = ord.String.Size(string(v.ID))
	size += ord.String.Size(v.Content)
	size += ord.String.Size(v.Subject)
	size += varint.Int64.Size(v.Date.UnixMicro())
	return size + VectorMUS.Size(v.Embedding)
}

type vectorMUS struct{}

func (s vectorMUS) Marshal(v Vector, bs []byte) (n int) {
	if v == nil {
		return varint.Int.Marshal(-1, bs)
	}
	n = varint.Int.Marshal(len(v), bs)
	for _, x := range v {
		n += raw.Float32.Marshal(x, bs[n:])
	}
	return
}

func (s vectorMUS) Unmarshal(bs []byte) (v Vector, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if length == -1 {
		return nil, n, nil
	}
	if length < -1 {
		return nil, n, fmt.Errorf("%w: negative length %d", ErrInvalidVector, length)
	}
	v = make(Vector, length)
	var n1 int
	for i := range v {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return
}

func (s vectorMUS) Size(v Vector) (size int) {
	if v == nil {
		return varint.Int.Size(-1)
	}
	size = varint.Int.Size(len(v))
	for _, x := range v {
		size += raw.Float32.Size(x)
	}
	return
}
