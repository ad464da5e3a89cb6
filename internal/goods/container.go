package goods

import "sort"

// Quantity is a named amount of one good.
type Quantity struct {
	Name   string `json:"name"`
	Amount Amount `json:"amount"`
}

// Container is a sparse basket: good name → micro-unit amount. A key
// holding a zero amount means "trades in this good" and is semantically
// distinct from the key being absent — market membership checks depend on
// it, so no operation drops a key except Clean.
//
// Every binary operation over two containers considers a key present in
// either operand; a missing key contributes 0.
type Container map[string]Amount

// NewContainer returns an empty container.
func NewContainer() Container {
	return make(Container)
}

// Clone returns a deep copy.
func (c Container) Clone() Container {
	out := make(Container, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Has reports whether the good is present, even at amount zero.
func (c Container) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// Get returns the amount for a good; absent keys read as zero.
func (c Container) Get(name string) Amount {
	return c[name]
}

// Set stores an amount, registering the key if needed.
func (c Container) Set(name string, amount Amount) {
	c[name] = amount
}

// Add adds every entry of o into c in place.
func (c Container) Add(o Container) {
	for k, v := range o {
		c[k] += v
	}
}

// Sub subtracts every entry of o from c in place. Entries may go negative;
// callers guard with CanSub when that matters.
func (c Container) Sub(o Container) {
	for k, v := range o {
		c[k] -= v
	}
}

// AddQuantity adds a single named amount in place.
func (c Container) AddQuantity(q Quantity) {
	c[q.Name] += q.Amount
}

// SubQuantity subtracts a single named amount in place.
func (c Container) SubQuantity(q Quantity) {
	c[q.Name] -= q.Amount
}

// Plus returns c + o without touching either operand.
func (c Container) Plus(o Container) Container {
	out := c.Clone()
	out.Add(o)
	return out
}

// Minus returns c - o without touching either operand.
func (c Container) Minus(o Container) Container {
	out := c.Clone()
	out.Sub(o)
	return out
}

// Scale returns c with every amount multiplied by the fixed-point factor f
// (amount*f/Unit, truncating). Entries that would overflow saturate.
func (c Container) Scale(f Amount) Container {
	out := make(Container, len(c))
	for k, v := range c {
		out[k], _ = MulDiv(v, f, Unit)
	}
	return out
}

// ScaleDiv returns c with every amount divided by the fixed-point factor f
// (amount*Unit/f, truncating). Entries that would overflow saturate.
func (c Container) ScaleDiv(f Amount) Container {
	out := make(Container, len(c))
	for k, v := range c {
		out[k], _ = MulDiv(v, Unit, f)
	}
	return out
}

// MulEach returns the elementwise fixed-point product: out[k] = c[k]*o[k]/Unit
// over the union of keys. This is not a dot product — it scales a vector of
// quantities by a parallel vector of per-good rates.
func (c Container) MulEach(o Container) Container {
	out := make(Container, len(c))
	for k, v := range c {
		out[k], _ = MulDiv(v, o[k], Unit)
	}
	for k := range o {
		if !c.Has(k) {
			out[k] = 0
		}
	}
	return out
}

// Dot returns the scalar product Σ c[k]*o[k]/Unit — e.g. the value of a
// basket at a price vector.
func (c Container) Dot(o Container) Amount {
	var sum Amount
	for k, v := range c {
		p, _ := MulDiv(v, o[k], Unit)
		sum += p
	}
	return sum
}

// MoveTo drains every amount of c into dst. The source keeps its keys at
// amount zero, so membership survives the move.
func (c Container) MoveTo(dst Container) {
	for k, v := range c {
		dst[k] += v
		c[k] = 0
	}
}

// Expand returns the contents as quantities sorted by good name, for
// deterministic iteration.
func (c Container) Expand() []Quantity {
	names := make([]string, 0, len(c))
	for k := range c {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]Quantity, len(names))
	for i, k := range names {
		out[i] = Quantity{Name: k, Amount: c[k]}
	}
	return out
}

// Clean removes entries whose magnitude is within tolerance of zero.
// The only operation that forgets keys.
func (c Container) Clean(tolerance Amount) {
	for k, v := range c {
		if v <= tolerance && v >= -tolerance {
			delete(c, k)
		}
	}
}

// CanSub reports whether o can be safely subtracted from c: every good c
// trades in holds at least o's amount. This is not an ordering — an empty
// container "can subtract" anything, and goods only o trades in are not
// inspected. See design doc Section 2.3 for why the quirk is kept.
func (c Container) CanSub(o Container) bool {
	for k, v := range c {
		if v < o[k] {
			return false
		}
	}
	return true
}

// Within is the mirror image of CanSub: every good c trades in holds at
// most o's amount. Neither relation is transitive-comparable; a container
// can be both Within and CanSub of the same operand.
func (c Container) Within(o Container) bool {
	for k, v := range c {
		if v > o[k] {
			return false
		}
	}
	return true
}
