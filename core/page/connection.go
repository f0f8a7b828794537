// Package page builds cursor-paginated views over ordered record sets.
// It is pure: no storage access, no locking, safe from any goroutine.
package page

// Selection picks a window of an ordered collection relative to opaque
// cursors. First/After and Last/Before form the two direction pairs; when
// both First and Last are set, First wins.
type Selection struct {
	First  *int
	After  string
	Last   *int
	Before string
}

type Edge[T any] struct {
	Cursor string `json:"cursor"`
	Node   T      `json:"node"`
}

type Info struct {
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// Connection is one page of results plus navigation flags.
type Connection[T any] struct {
	Edges    []Edge[T] `json:"edges"`
	PageInfo Info      `json:"pageInfo"`
}

// Build slices records (already scoped and ordered, oldest first) according
// to sel. A cursor naming a record that is no longer present yields an empty
// page rather than an error; a malformed cursor yields ErrInvalidCursor.
func Build[T any](records []T, position func(T) string, sel Selection) (Connection[T], error) {
	conn := Connection[T]{Edges: []Edge[T]{}}

	if sel.After != "" {
		pos, err := DecodeCursor(sel.After)
		if err != nil {
			return conn, err
		}
		i := indexOf(records, position, pos)
		if i < 0 {
			return conn, nil
		}
		records = records[i+1:]
	}

	if sel.Before != "" {
		pos, err := DecodeCursor(sel.Before)
		if err != nil {
			return conn, err
		}
		i := indexOf(records, position, pos)
		if i < 0 {
			return conn, nil
		}
		records = records[:i]
	}

	remaining := len(records)

	switch {
	case sel.First != nil:
		n := clamp(*sel.First, remaining)
		records = records[:n]
		conn.PageInfo.HasNextPage = remaining > n
		conn.PageInfo.HasPreviousPage = sel.After != ""

	case sel.Last != nil:
		n := clamp(*sel.Last, remaining)
		records = records[remaining-n:]
		conn.PageInfo.HasPreviousPage = remaining > n
		conn.PageInfo.HasNextPage = sel.Before != ""

	default:
		conn.PageInfo.HasPreviousPage = sel.After != ""
	}

	for _, r := range records {
		conn.Edges = append(conn.Edges, Edge[T]{Cursor: EncodeCursor(position(r)), Node: r})
	}

	return conn, nil
}

func indexOf[T any](records []T, position func(T) string, pos string) int {
	for i := range records {
		if position(records[i]) == pos {
			return i
		}
	}
	return -1
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}
