package blocks

import "fmt"

// ErrBlockNotFound is returned when a targeted block id does not exist in the
// document (deleted concurrently, or the content was replaced wholesale).
type ErrBlockNotFound struct {
	Id string
}

func (e *ErrBlockNotFound) Error() string {
	return fmt.Sprintf("block %s not found", e.Id)
}

// Find returns the block with the given id, or nil.
func (d *Document) Find(id string) *Block {
	for i := range d.Blocks {
		if d.Blocks[i].Id == id {
			return &d.Blocks[i]
		}
	}
	return nil
}

// ReplaceText replaces the content of the block identified by id with a
// single plain run, preserving the block's id, type and list attributes.
func (d *Document) ReplaceText(id, text string) error {
	block := d.Find(id)
	if block == nil {
		return &ErrBlockNotFound{Id: id}
	}
	block.Runs = []Run{{Text: text}}
	return nil
}

// Text returns the concatenated run text of the block with the given id.
func (d *Document) Text(id string) (string, error) {
	block := d.Find(id)
	if block == nil {
		return "", &ErrBlockNotFound{Id: id}
	}
	var out string
	for _, run := range block.Runs {
		out += run.Text
	}
	return out, nil
}
