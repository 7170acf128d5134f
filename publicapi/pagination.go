package publicapi

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/circleapp/go-circle/service/persist"
	"github.com/circleapp/go-circle/validate"
)

var (
	defaultCursorBeforeID = persist.DBID("")
	defaultCursorAfterID  = persist.DBID("")

	// Some date that comes after any other valid timestamps in our database
	defaultCursorBeforeTime = time.Date(3000, 1, 1, 1, 1, 1, 1, time.UTC)
	// Some date that comes before any other valid timestamps in our database
	defaultCursorAfterTime = time.Date(1970, 1, 1, 1, 1, 1, 1, time.UTC)
)

type PageInfo struct {
	Total           *int
	Size            int
	HasPreviousPage bool
	HasNextPage     bool
	StartCursor     string
	EndCursor       string
}

func validatePaginationParams(validator *validator.Validate, first *int, last *int) error {
	if err := validate.ValidateFields(validator, validate.ValidationMap{
		"first": validate.WithTag(first, "omitempty,gte=0"),
		"last":  validate.WithTag(last, "omitempty,gte=0"),
	}); err != nil {
		return err
	}

	return validator.Struct(validate.ConnectionPaginationParams{
		First: first,
		Last:  last,
	})
}

// pageSlice applies the over-fetch-by-one rule to a slice fetched with
// limit+1: if more than limit items came back there is another page, and the
// returned page never exceeds limit. This is the only reliable hasMore
// signal; comparing the fetched count against a total breaks down when the
// count query is filtered differently than the page fetch.
func pageSlice[T any](items []T, limit int) ([]T, bool) {
	if limit >= 0 && len(items) > limit {
		return items[:limit], true
	}
	return items, false
}

// keysetPaginator is the base keyset pagination struct. You probably don't
// want to use this directly; use a cursor-specific helper like timeIDPaginator.
type keysetPaginator struct {
	// QueryFunc returns paginated results for the given paging parameters
	QueryFunc func(limit int32, pagingForward bool) (nodes []any, err error)

	// CursorFunc produces the cursor string for a node
	CursorFunc func(node any) (string, error)

	// CountFunc returns the total number of items that can be paginated. May
	// be nil, in which case the resulting PageInfo will omit the total field.
	CountFunc func() (count int, err error)
}

func (p *keysetPaginator) paginate(before *string, after *string, first *int, last *int) ([]any, PageInfo, error) {
	// Limit is intentionally 1 more than requested, so we can see if there
	// are additional pages
	limit := 1
	if first != nil {
		limit += *first
	} else {
		limit += *last
	}

	// Either first or last will be supplied (but not both). If first isn't
	// nil, we're paging forward!
	pagingForward := first != nil
	results, err := p.QueryFunc(int32(limit), pagingForward)
	if err != nil {
		return nil, PageInfo{}, err
	}

	// Reverse the slice if we're paginating backward. Keyset pagination
	// requires the store to use opposite orderings for forward and backward
	// paging, but returned elements should always be in the same order.
	if !pagingForward {
		for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
			results[i], results[j] = results[j], results[i]
		}
	}

	var pageInfo PageInfo

	edges := results
	if first != nil {
		edges, pageInfo.HasNextPage = pageSlice(edges, *first)
	}
	if last != nil && len(edges) > *last {
		edges = edges[len(edges)-*last:]
		pageInfo.HasPreviousPage = true
	}

	if len(edges) > 0 {
		if pageInfo.StartCursor, err = p.CursorFunc(edges[0]); err != nil {
			return nil, PageInfo{}, err
		}
		if pageInfo.EndCursor, err = p.CursorFunc(edges[len(edges)-1]); err != nil {
			return nil, PageInfo{}, err
		}
	}

	if p.CountFunc != nil {
		total, err := p.CountFunc()
		if err != nil {
			return nil, PageInfo{}, err
		}
		pageInfo.Total = &total
	}

	pageInfo.Size = len(edges)

	return edges, pageInfo, nil
}

// timeIDPaginator paginates results using a cursor with a time.Time and a
// persist.DBID. The combination of a timestamp and a unique DBID in the
// ordering avoids edge cases when multiple rows share a timestamp.
type timeIDPaginator struct {
	// QueryFunc returns paginated results for the given paging parameters
	QueryFunc func(params timeIDPagingParams) ([]any, error)

	// CursorFunc returns a time and DBID that will be encoded into a cursor string
	CursorFunc func(node any) (time.Time, persist.DBID, error)

	// CountFunc returns the total number of items that can be paginated. May
	// be nil, in which case the resulting PageInfo will omit the total field.
	CountFunc func() (count int, err error)
}

// timeIDPagingParams are the parameters used to paginate with a time+DBID cursor
type timeIDPagingParams struct {
	Limit            int32
	CursorBeforeTime time.Time
	CursorBeforeID   persist.DBID
	CursorAfterTime  time.Time
	CursorAfterID    persist.DBID
	PagingForward    bool
}

func (p *timeIDPaginator) paginate(before *string, after *string, first *int, last *int) ([]any, PageInfo, error) {
	queryFunc := func(limit int32, pagingForward bool) ([]any, error) {
		beforeCur := timeIDCursor{
			Time: defaultCursorBeforeTime,
			ID:   defaultCursorBeforeID,
		}
		afterCur := timeIDCursor{
			Time: defaultCursorAfterTime,
			ID:   defaultCursorAfterID,
		}

		if before != nil {
			if err := beforeCur.Unpack(*before); err != nil {
				return nil, err
			}
		}

		if after != nil {
			if err := afterCur.Unpack(*after); err != nil {
				return nil, err
			}
		}

		return p.QueryFunc(timeIDPagingParams{
			Limit:            limit,
			CursorBeforeTime: beforeCur.Time,
			CursorBeforeID:   beforeCur.ID,
			CursorAfterTime:  afterCur.Time,
			CursorAfterID:    afterCur.ID,
			PagingForward:    pagingForward,
		})
	}

	cursorFunc := func(node any) (string, error) {
		var cur timeIDCursor
		var err error
		cur.Time, cur.ID, err = p.CursorFunc(node)
		if err != nil {
			return "", err
		}
		return cur.Pack()
	}

	paginator := keysetPaginator{
		QueryFunc:  queryFunc,
		CursorFunc: cursorFunc,
		CountFunc:  p.CountFunc,
	}

	return paginator.paginate(before, after, first, last)
}

//------------------------------------------------------------------------------

type cursorEncoder struct {
	buffer []byte
}

func newCursorEncoder() cursorEncoder {
	return cursorEncoder{}
}

// AsBase64 returns the underlying byte buffer as a Base64 string
func (e *cursorEncoder) AsBase64() string {
	return base64.RawStdEncoding.EncodeToString(e.buffer)
}

func (e *cursorEncoder) appendTime(t time.Time) error {
	timeBytes, err := t.MarshalBinary()
	if err != nil {
		return err
	}

	// Write the time's length first
	e.appendUInt64(uint64(len(timeBytes)))

	// Then write the time's bytes
	e.buffer = append(e.buffer, timeBytes...)

	return nil
}

func (e *cursorEncoder) appendString(str string) {
	strLen := len(str)

	// Write the string's length first
	e.appendUInt64(uint64(strLen))

	// Then write the string's bytes
	if strLen != 0 {
		e.buffer = append(e.buffer, []byte(str)...)
	}
}

func (e *cursorEncoder) appendDBID(dbid persist.DBID) {
	e.appendString(dbid.String())
}

// appendUInt64 appends a uint64 to the underlying buffer, using a
// variable-length encoding (smaller numbers require fewer bytes)
func (e *cursorEncoder) appendUInt64(i uint64) {
	buf := make([]byte, binary.MaxVarintLen64)
	bytesWritten := binary.PutUvarint(buf, i)
	e.buffer = append(e.buffer, buf[:bytesWritten]...)
}

type cursorDecoder struct {
	reader *bytes.Reader
}

func newCursorDecoder(base64Cursor string) (cursorDecoder, error) {
	decoded, err := base64.RawStdEncoding.DecodeString(base64Cursor)
	if err != nil {
		return cursorDecoder{}, err
	}

	return cursorDecoder{reader: bytes.NewReader(decoded)}, nil
}

// readTime reads a time from the underlying reader and advances the stream
func (d *cursorDecoder) readTime() (time.Time, error) {
	t := time.Time{}

	// Times are prefixed with their length
	timeLen, err := d.readUInt64()
	if err != nil {
		return t, err
	}

	timeBytes := make([]byte, timeLen)
	numRead, err := d.reader.Read(timeBytes)
	if err != nil {
		return t, err
	}

	if uint64(numRead) != timeLen {
		return t, fmt.Errorf("error reading time: expected %d bytes, but only read %d bytes", timeLen, numRead)
	}

	err = t.UnmarshalBinary(timeBytes)
	if err != nil {
		return t, err
	}

	return t, nil
}

// readString reads a string from the underlying reader and advances the stream
func (d *cursorDecoder) readString() (string, error) {
	// Strings are prefixed with their length
	strLen, err := d.readUInt64()
	if err != nil {
		return "", err
	}

	strBytes := make([]byte, strLen)
	numRead, err := d.reader.Read(strBytes)
	if err != nil {
		return "", err
	}

	if uint64(numRead) != strLen {
		return "", fmt.Errorf("error reading string: expected %d bytes, but only read %d bytes", strLen, numRead)
	}

	return string(strBytes), nil
}

// readDBID reads a DBID from the underlying reader and advances the stream
func (d *cursorDecoder) readDBID() (persist.DBID, error) {
	str, err := d.readString()
	if err != nil {
		return "", err
	}

	return persist.DBID(str), nil
}

// readUInt64 reads a uint64 from the underlying reader and advances the
// stream, using a variable-length encoding
func (d *cursorDecoder) readUInt64() (uint64, error) {
	return binary.ReadUvarint(d.reader)
}

//------------------------------------------------------------------------------

type timeIDCursor struct {
	Time time.Time
	ID   persist.DBID
}

func (c timeIDCursor) Pack() (string, error) {
	e := newCursorEncoder()
	if err := e.appendTime(c.Time); err != nil {
		return "", err
	}
	e.appendDBID(c.ID)
	return e.AsBase64(), nil
}

func (c *timeIDCursor) Unpack(s string) error {
	d, err := newCursorDecoder(s)
	if err != nil {
		return err
	}
	c.Time, err = d.readTime()
	if err != nil {
		return err
	}
	c.ID, err = d.readDBID()
	return err
}
