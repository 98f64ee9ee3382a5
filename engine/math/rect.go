package math

// Rect2D is an axis aligned rectangle given by its top-left corner and size.
type Rect2D struct {
	Pos  Vec2
	Size Vec2
}

func NewRect2D(x, y, w, h float32) Rect2D {
	return Rect2D{Pos: Vec2{x, y}, Size: Vec2{w, h}}
}

// IsSizeZero is true when either side is zero. Sprites treat such a rect
// as "the whole bitmap".
func (r Rect2D) IsSizeZero() bool {
	return r.Size.X == 0 || r.Size.Y == 0
}
