package val

import "github.com/prollytree/prollytree/hash"

// WriteRef appends a hash.Ref's encoding: target hash, height, kind. This
// lives in val (rather than as a method on hash.Ref) so hash stays free of
// any dependency on the encoding package that depends on it.
func WriteRef(e *Encoder, r hash.Ref) {
	e.WriteRawBytes(r.TargetHash[:])
	e.WriteUint64(r.Height)
	e.writeByte(byte(r.Kind))
}

// ReadRef decodes a hash.Ref written by WriteRef.
func (d *Decoder) ReadRef() hash.Ref {
	if !d.need(hash.ByteLen) {
		return hash.Ref{}
	}
	var h hash.Hash
	copy(h[:], d.buf[d.pos:d.pos+hash.ByteLen])
	d.pos += hash.ByteLen
	height := d.ReadUint64()
	kind := hash.Kind(d.readByte())
	return hash.NewRef(h, height, kind)
}
