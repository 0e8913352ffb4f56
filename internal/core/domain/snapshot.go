package domain

import (
	"encoding/json"

	"go.trai.ch/zerr"
)

// EncodeTransaction serialises a detached snapshot of t for persistence.
// It fails with ErrSnapshot when the record holds values that cannot be
// serialised, typically an attachment of an unsupported type.
func EncodeTransaction(t *Transaction) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrSnapshot, err.Error()), "xid", t.Xid.String())
	}
	return data, nil
}

// DecodeTransaction restores a snapshot produced by EncodeTransaction.
func DecodeTransaction(data []byte) (*Transaction, error) {
	var t Transaction
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, zerr.Wrap(err, "failed to decode transaction snapshot")
	}
	return &t, nil
}
