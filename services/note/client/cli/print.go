package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ghuser/notekeeper/services/note/client"
)

// printRecords writes recs as an aligned table. Records not yet confirmed by
// the server (optimistic create) have no ID and show as pending.
func printRecords(w io.Writer, recs []client.Record) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "no notes")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION\tIMAGE")
	for _, r := range recs {
		id := r.ID
		if id == "" {
			id = "(pending)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, r.Name, r.Description, imageColumn(r))
	}
	return tw.Flush()
}

func imageColumn(r client.Record) string {
	switch {
	case r.ImageURL != "":
		return r.ImageURL
	case r.ImageKey != "":
		return r.ImageKey + " (unresolved)"
	default:
		return "-"
	}
}
