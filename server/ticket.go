package server

import "strings"

// Tickets are self-contained ASCII strings: every DoGet reproduces its result
// from the ticket alone, with no server-side handle state.
const (
	queryTicketPrefix = "QUERY:"
	cmdTicketPrefix   = "CMD:"
)

// Metadata ticket kinds.
const (
	KindGetCatalogs   = "GET_CATALOGS"
	KindGetDBSchemas  = "GET_DB_SCHEMAS"
	KindGetTables     = "GET_TABLES"
	KindGetTableTypes = "GET_TABLE_TYPES"
)

// Ticket is a decoded DoGet ticket.
type Ticket struct {
	// Query is set for QUERY: tickets and for raw-SQL fallback tickets.
	Query string

	// Kind is set for CMD: tickets.
	Kind string

	// Filter is the optional catalog filter of a CMD: ticket.
	Filter string

	// Raw marks a ticket that had no recognized prefix and is being
	// treated as a bare SQL string.
	Raw bool
}

// QueryTicket encodes a rewritten SQL statement.
func QueryTicket(query string) []byte {
	return []byte(queryTicketPrefix + query)
}

// MetadataTicket encodes a metadata command with an optional catalog filter.
func MetadataTicket(kind, filter string) []byte {
	if filter != "" {
		return []byte(cmdTicketPrefix + kind + ":" + filter)
	}
	return []byte(cmdTicketPrefix + kind)
}

// ParseTicket decodes a ticket. Unrecognized prefixes fall back to treating
// the whole ticket as a raw SQL string.
func ParseTicket(raw []byte) Ticket {
	s := string(raw)
	switch {
	case strings.HasPrefix(s, queryTicketPrefix):
		return Ticket{Query: s[len(queryTicketPrefix):]}
	case strings.HasPrefix(s, cmdTicketPrefix):
		rest := s[len(cmdTicketPrefix):]
		kind, filter, _ := strings.Cut(rest, ":")
		return Ticket{Kind: kind, Filter: filter}
	default:
		return Ticket{Query: s, Raw: true}
	}
}
