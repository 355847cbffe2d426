package store

import (
	"fmt"

	"gorm.io/gorm"
)

// reorder moves id to index position within ids, clamping the index to the
// list bounds.
func reorder(ids []int64, id int64, position int) []int64 {
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	if position < 0 {
		position = 0
	}
	if position > len(out) {
		position = len(out)
	}
	out = append(out, 0)
	copy(out[position+1:], out[position:])
	out[position] = id
	return out
}

// nextPosition returns the position just past the highest one matched by q,
// so new rows sort last even when deletes left gaps.
func nextPosition(q *gorm.DB) (int, error) {
	var next int64
	if err := q.Select("COALESCE(MAX(position), -1) + 1").Scan(&next).Error; err != nil {
		return 0, err
	}
	return int(next), nil
}

// renumber writes each row's index in ids as its position.
func renumber(tx *gorm.DB, table any, ids []int64) error {
	for i, id := range ids {
		if err := tx.Model(table).Where("id = ?", id).Update("position", i).Error; err != nil {
			return fmt.Errorf("failed to update position of %d: %w", id, err)
		}
	}
	return nil
}
