package parse

import "fmt"

// PartInput is a validated part payload.
type PartInput struct {
	PartNumber string
	Quantity   int
	Location   string
}

// Part validates the three part fields together. Quantity arrives already
// decoded; callers holding user text should run it through Quantity first.
func Part(partNumber string, quantity int, location string) (PartInput, error) {
	pn, err := PartNumber(partNumber)
	if err != nil {
		return PartInput{}, err
	}
	if quantity < 0 {
		return PartInput{}, fmt.Errorf("%w: quantity must not be negative", ErrInvalid)
	}
	loc, err := Location(location)
	if err != nil {
		return PartInput{}, err
	}
	return PartInput{PartNumber: pn, Quantity: quantity, Location: loc}, nil
}
