package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ReplyOK is the body sent back by create-page, save-page and delete-page.
const ReplyOK = "ok"

// PageID is a page id on the wire. It is sent as a decimal string but a
// JSON number is accepted too. A null id decodes as zero, which matches no page.
type PageID int64

// UnmarshalJSON implements json.Unmarshaler.
func (id *PageID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid page id %s", data)
	}
	*id = PageID(n)
	return nil
}

// MarshalJSON sends the id as a decimal string.
func (id PageID) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(id), 10))
}

// GetPageRequest is the get-page body.
type GetPageRequest struct {
	Page string `json:"page"`
}

// CreatePageRequest is the create-page body.
type CreatePageRequest struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

// SavePageRequest is the save-page body.
type SavePageRequest struct {
	ID       PageID `json:"id"`
	Markdown string `json:"markdown"`
}

// DeletePageRequest is the delete-page body.
type DeletePageRequest struct {
	ID PageID `json:"id"`
}

// AllPagesReply is the all-pages reply body.
type AllPagesReply struct {
	Pages []string `json:"pages"`
}

// GetPageReply is the get-page reply body. ID and RawContent are present
// only when Found is true.
type GetPageReply struct {
	Found      bool    `json:"found"`
	ID         *int64  `json:"id,omitempty"`
	RawContent *string `json:"rawContent,omitempty"`
}
