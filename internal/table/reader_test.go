package table

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestOpenSource_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := OpenSource("data.pdf", strings.NewReader(""), 0, nil)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat got %v", err)
	}
}

func TestCSVSource_CommaSeparated(t *testing.T) {
	t.Parallel()

	src, err := NewCSVSource(strings.NewReader("branch,date,brand\nMaadi,20,Nike\n"), 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	batch, err := src.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if batch == nil || len(batch.Headers) != 3 || batch.Headers[0] != "branch" {
		t.Fatalf("unexpected headers: %v", batch)
	}
	if len(batch.Rows) != 1 || batch.Rows[0][2] != "Nike" {
		t.Fatalf("unexpected rows: %v", batch.Rows)
	}

	batch, err = src.Next()
	if err != nil || batch != nil {
		t.Fatalf("want end of source, got batch=%v err=%v", batch, err)
	}
}

func TestCSVSource_SemicolonFallback(t *testing.T) {
	t.Parallel()

	src, err := NewCSVSource(strings.NewReader("branch;date;brand\nMaadi;20;Nike\n"), 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	batch, err := src.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if len(batch.Headers) != 3 || batch.Headers[1] != "date" {
		t.Fatalf("semicolon headers not split: %v", batch.Headers)
	}
	if batch.Rows[0][0] != "Maadi" {
		t.Fatalf("semicolon rows not split: %v", batch.Rows)
	}
}

func TestCSVSource_Batching(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("branch,date,brand\n")
	for i := 0; i < 5; i++ {
		sb.WriteString("A,1,X\n")
	}

	src, err := NewCSVSource(strings.NewReader(sb.String()), 2)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var sizes []int
	for {
		batch, err := src.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if batch == nil {
			break
		}
		sizes = append(sizes, len(batch.Rows))
	}

	want := []int{2, 2, 1}
	if len(sizes) != len(want) {
		t.Fatalf("want batches %v got %v", want, sizes)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("want batches %v got %v", want, sizes)
		}
	}
}

// countingReader 统计底层读取的字节数
type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

func TestCSVSource_StreamsWithoutMaterializing(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("branch,date,brand\n")
	for i := 0; i < 100000; i++ {
		sb.WriteString("Maadi Branch,20-09-2025,Nike\n")
	}
	data := sb.String()

	cr := &countingReader{r: strings.NewReader(data)}
	src, err := NewCSVSource(cr, 1000)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// 打开只应消费表头附近的一小段，而非整个文件
	if cr.n >= len(data)/2 {
		t.Fatalf("open consumed %d of %d bytes", cr.n, len(data))
	}

	total := 0
	for {
		batch, err := src.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if batch == nil {
			break
		}
		total += len(batch.Rows)
	}
	if total != 100000 {
		t.Fatalf("want 100000 rows got %d", total)
	}
}

func TestCSVSource_Empty(t *testing.T) {
	t.Parallel()

	if _, err := NewCSVSource(strings.NewReader(""), 0); err == nil {
		t.Fatalf("want error for empty CSV")
	}
}
