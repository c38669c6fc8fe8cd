package document

import (
	"reflect"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindBlank, "Blank"},
		{KindText, "Text"},
		{KindNumber, "Number"},
		{KindFormula, "Formula"},
		{KindOther, "Other"},
		{Kind(42), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("Kind(%d).String() = %s, want %s", tt.kind, got, tt.expected)
		}
	}
}

func TestSheetCell(t *testing.T) {
	s := NewSheet("Items",
		[]Cell{Text("Hello"), Number("42")},
		[]Cell{Formula("SUM(B1:B1)", "42")},
	)

	if c := s.Cell(0, 0); c.Kind != KindText || c.Text != "Hello" {
		t.Errorf("Cell(0,0) = %+v", c)
	}
	if c := s.Cell(1, 5); c.Kind != KindBlank {
		t.Errorf("Expected blank outside row, got %+v", c)
	}
	if c := s.Cell(9, 0); c.Kind != KindBlank {
		t.Errorf("Expected blank outside grid, got %+v", c)
	}
}

func TestSheetSetCell(t *testing.T) {
	s := NewSheet("Items", []Cell{Text("a")})

	if err := s.SetCell(0, 3, Text("d")); err != nil {
		t.Fatalf("SetCell failed: %v", err)
	}
	if len(s.Rows[0]) != 4 {
		t.Fatalf("Expected row to grow to 4 cells, got %d", len(s.Rows[0]))
	}
	if s.Rows[0][1].Kind != KindBlank {
		t.Errorf("Expected padding cell to be blank")
	}

	if err := s.SetCell(1, 0, Text("x")); err == nil {
		t.Error("Expected error when writing past the last row")
	}
	if err := s.SetCell(0, -1, Text("x")); err == nil {
		t.Error("Expected error for negative column")
	}
}

func TestDocumentClone(t *testing.T) {
	doc := &Document{
		Origin: "in.xlsx",
		Sheets: []*Sheet{
			NewSheet("One", []Cell{Text("Hello"), Other("b", "1")}),
			NewSheet("Two", []Cell{Blank(), Number("3.5")}),
		},
	}

	clone, err := doc.Clone()
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	if !reflect.DeepEqual(doc, clone) {
		t.Fatalf("Clone differs from original")
	}

	clone.Sheets[0].Rows[0][0] = Text("Bonjour")
	if doc.Sheets[0].Rows[0][0].Text != "Hello" {
		t.Error("Modifying the clone changed the original")
	}
}
