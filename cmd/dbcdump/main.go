// Package main provides a CLI tool for inspecting fixed-record client
// data files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cory-johannsen/worldforge/internal/codec"
	"github.com/cory-johannsen/worldforge/internal/schema"
)

func main() {
	in := flag.String("in", "", "path to client data file (required)")
	typeName := flag.String("type", "", "record type name; inferred from the file name when empty")
	showStrings := flag.Bool("strings", false, "also dump the string block")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(1)
	}

	registry := schema.Builtin()

	var rt *schema.RecordType
	if *typeName != "" {
		t, ok := registry.Type(*typeName)
		if !ok {
			log.Fatalf("unknown record type %q", *typeName)
		}
		rt = t
	} else {
		base := filepath.Base(*in)
		for _, t := range registry.Types() {
			if t.Storage == schema.StorageBinary && strings.EqualFold(t.File, base) {
				rt = t
				break
			}
		}
		if rt == nil {
			log.Fatalf("cannot infer record type from %q; pass -type", base)
		}
	}
	if rt.Storage != schema.StorageBinary {
		log.Fatalf("record type %q is not binary storage", rt.Name)
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("reading %s: %v", *in, err)
	}

	records, pool, err := codec.DecodeFile(data, rt)
	if err != nil {
		log.Fatalf("decoding %s: %v", *in, err)
	}

	fmt.Fprintf(os.Stdout, "%s: %d record(s), %d field(s), %d byte rows, %d byte string block\n",
		rt.File, len(records), len(rt.Fields), rt.RowSize(), pool.Size())

	for _, rec := range records {
		parts := make([]string, 0, len(rt.Fields))
		for i, f := range rt.Fields {
			parts = append(parts, f.Name+"="+renderCell(f, rec.Values[i]))
		}
		fmt.Fprintf(os.Stdout, "  %s\n", strings.Join(parts, " "))
	}

	if *showStrings {
		fmt.Fprintln(os.Stdout, "string block:")
		for _, e := range pool.Entries() {
			fmt.Fprintf(os.Stdout, "  %6d %q\n", e.Offset, e.Text)
		}
	}
}

// renderCell formats one cell for display by field kind. Reference cells
// print as plain ids.
func renderCell(f schema.Field, v codec.Value) string {
	switch f.Kind {
	case schema.F32:
		return strconv.FormatFloat(float64(v.F32), 'g', -1, 32)
	case schema.Str:
		return strconv.Quote(v.Str)
	default:
		return strconv.FormatUint(uint64(v.U32), 10)
	}
}
