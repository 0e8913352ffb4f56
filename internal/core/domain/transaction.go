package domain

import (
	"reflect"
	"slices"
	"strings"
	"time"
)

// TransactionStatus is the phase a TCC transaction is in.
type TransactionStatus string

const (
	// StatusTrying indicates participants are executing their try phase.
	StatusTrying TransactionStatus = "TRYING"
	// StatusConfirming indicates the coordinator decided to confirm.
	StatusConfirming TransactionStatus = "CONFIRMING"
	// StatusCancelling indicates the coordinator decided to cancel.
	StatusCancelling TransactionStatus = "CANCELLING"
)

// ParseTransactionStatus converts a case-insensitive name to a TransactionStatus.
func ParseTransactionStatus(s string) (TransactionStatus, bool) {
	switch TransactionStatus(strings.ToUpper(s)) {
	case StatusTrying:
		return StatusTrying, true
	case StatusConfirming:
		return StatusConfirming, true
	case StatusCancelling:
		return StatusCancelling, true
	default:
		return "", false
	}
}

// TransactionType distinguishes the originating transaction from enlisted branches.
type TransactionType string

const (
	// TypeRoot is the transaction started by the initiating service.
	TypeRoot TransactionType = "ROOT"
	// TypeBranch is a transaction propagated to a participant.
	TypeBranch TransactionType = "BRANCH"
)

// Participant is a resource enlisted in a transaction together with the
// methods that complete or compensate its try phase.
type Participant struct {
	Xid           Xid    `json:"xid"`
	ConfirmMethod string `json:"confirm_method,omitzero"`
	CancelMethod  string `json:"cancel_method,omitzero"`
}

// Transaction is a snapshot of a distributed transaction's state.
//
// A Transaction handed to the repository is owned by the caller; the cache
// and the stores keep their own copies.
type Transaction struct {
	Xid            Xid               `json:"xid"`
	Status         TransactionStatus `json:"status"`
	Type           TransactionType   `json:"type"`
	RetriedCount   int               `json:"retried_count"`
	Version        int64             `json:"version"`
	CreateTime     time.Time         `json:"create_time"`
	LastUpdateTime time.Time         `json:"last_update_time"`
	Participants   []Participant     `json:"participants,omitempty"`
	Attachments    map[string]any    `json:"attachments,omitempty"`
}

// NewTransaction creates a root transaction in the trying phase.
func NewTransaction() *Transaction {
	return newTransaction(NewXid(), TypeRoot)
}

// NewBranchTransaction creates a branch transaction joining the given root.
func NewBranchTransaction(root Xid) *Transaction {
	return newTransaction(NewBranchXid(root.GlobalID), TypeBranch)
}

func newTransaction(xid Xid, typ TransactionType) *Transaction {
	now := time.Now()
	return &Transaction{
		Xid:            xid,
		Status:         StatusTrying,
		Type:           typ,
		Version:        1,
		CreateTime:     now,
		LastUpdateTime: now,
	}
}

// Enlist adds a participant.
func (t *Transaction) Enlist(p Participant) {
	t.Participants = append(t.Participants, p)
}

// ChangeStatus moves the transaction to a new phase.
func (t *Transaction) ChangeStatus(s TransactionStatus) {
	t.Status = s
}

// AddRetriedCount records one more recovery attempt.
func (t *Transaction) AddRetriedCount() {
	t.RetriedCount++
}

// UpdateTime stamps the record as modified at now.
func (t *Transaction) UpdateTime(now time.Time) {
	t.LastUpdateTime = now
}

// UpdateVersion advances the optimistic-lock version.
func (t *Transaction) UpdateVersion() {
	t.Version++
}

// UnmodifiedSince reports whether the record was last modified at or before ts.
func (t *Transaction) UnmodifiedSince(ts time.Time) bool {
	return !t.LastUpdateTime.After(ts)
}

// Attach sets an attachment value.
func (t *Transaction) Attach(key string, value any) {
	if t.Attachments == nil {
		t.Attachments = make(map[string]any)
	}
	t.Attachments[key] = value
}

// Clone returns a copy that shares no slices or maps with t, including maps
// and slices nested inside attachment values. Pointers held by attachments
// are still shared.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	c.Participants = slices.Clone(t.Participants)
	if t.Attachments != nil {
		c.Attachments = make(map[string]any, len(t.Attachments))
		for k, v := range t.Attachments {
			c.Attachments[k] = cloneAttachment(v)
		}
	}
	return &c
}

func cloneAttachment(v any) any {
	if v == nil {
		return nil
	}
	return deepCopy(reflect.ValueOf(v)).Interface()
}

func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(deepCopy(v.Elem()))
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := range v.Len() {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	default:
		return v
	}
}
