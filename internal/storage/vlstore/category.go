package vlstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leengari/tablestore/internal/digest"
)

// Category selects which pair of files a value lives in
type Category uint8

const (
	CategoryString Category = iota
	CategoryBlob
)

// Categories lists every category in a fixed order
var Categories = []Category{CategoryString, CategoryBlob}

func (c Category) String() string {
	switch c {
	case CategoryString:
		return "String"
	case CategoryBlob:
		return "Blob"
	default:
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
}

func (c Category) valid() bool {
	return c == CategoryString || c == CategoryBlob
}

// KeysFile returns the key file name, e.g. StringKeys.vlk
func (c Category) KeysFile() string {
	return c.String() + "Keys.vlk"
}

// ValsFile returns the value file name, e.g. StringVals.vlv
func (c Category) ValsFile() string {
	return c.String() + "Vals.vlv"
}

// categoryFiles holds the open files and in-memory indexes of one category
type categoryFiles struct {
	cat      Category
	keys     *os.File
	vals     *os.File
	keysPath string
	valsPath string

	// index maps a digest to its position in both sequences
	index map[digest.Digest]int
	// offsets maps a position to the start of its value record
	offsets []int64

	keysEnd int64
	valsEnd int64
	dirty   bool
}

func newCategoryFiles(dir string, cat Category) *categoryFiles {
	return &categoryFiles{
		cat:      cat,
		keysPath: filepath.Join(dir, cat.KeysFile()),
		valsPath: filepath.Join(dir, cat.ValsFile()),
		index:    make(map[digest.Digest]int),
	}
}

func (c *categoryFiles) len() int {
	return len(c.offsets)
}
