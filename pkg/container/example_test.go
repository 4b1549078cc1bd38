package container_test

import (
	"fmt"
	"io"
	"log"

	"github.com/ssargent/avrokit/pkg/codec"
	"github.com/ssargent/avrokit/pkg/container"
	"github.com/ssargent/avrokit/pkg/schema"
	"github.com/ssargent/avrokit/pkg/value"
)

func Example() {
	s := schema.MustParse(`{"type": "record", "name": "Pair", "fields": [
		{"name": "a", "type": "long"},
		{"name": "b", "type": "string"}
	]}`)

	w, err := container.NewWriter(s, container.WriterConfig{Codec: codec.Snappy{}})
	if err != nil {
		log.Fatal(err)
	}
	for i, word := range []string{"one", "two", "three"} {
		rec, err := value.RecordOf(s, []*value.Value{value.Long(int64(i + 1)), value.String(word)})
		if err != nil {
			log.Fatal(err)
		}
		if _, err := w.AppendValue(rec); err != nil {
			log.Fatal(err)
		}
	}
	data, err := w.IntoData()
	if err != nil {
		log.Fatal(err)
	}

	r, err := container.NewReader(data, s, container.ReaderConfig{})
	if err != nil {
		log.Fatal(err)
	}
	for {
		v, err := r.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(v)
	}
	fmt.Println(r.Blocks(), "block")

	// Output:
	// map[a:1 b:one]
	// map[a:2 b:two]
	// map[a:3 b:three]
	// 1 block
}
