package domain

type Record struct {
	Identity  Identity
	SourceURL string
	Duration  float64
	FirstTime bool
	Keys      []string
}

// Catalog holds every identity seen since the last reset, in discovery order.
type Catalog struct {
	records map[Identity]*Record
	order   []Identity
}

func NewCatalog() *Catalog {
	return &Catalog{records: map[Identity]*Record{}}
}

// Register adds the element's identity once. It reports whether the record
// was created by this call.
func (c *Catalog) Register(id Identity, m MediaElement) (*Record, bool) {
	if rec, ok := c.records[id]; ok {
		return rec, false
	}
	rec := &Record{
		Identity:  id,
		SourceURL: m.SourceURL(),
		Duration:  m.Duration,
		FirstTime: true,
	}
	c.records[id] = rec
	c.order = append(c.order, id)
	return rec, true
}

func (c *Catalog) Get(id Identity) (*Record, bool) {
	rec, ok := c.records[id]
	return rec, ok
}

func (c *Catalog) AppendKey(id Identity, key string) bool {
	rec, ok := c.records[id]
	if !ok {
		return false
	}
	rec.Keys = append(rec.Keys, key)
	return true
}

func (c *Catalog) Len() int {
	return len(c.order)
}

func (c *Catalog) Records() []Record {
	out := make([]Record, 0, len(c.order))
	for _, id := range c.order {
		rec := *c.records[id]
		rec.Keys = append([]string(nil), rec.Keys...)
		out = append(out, rec)
	}
	return out
}

func (c *Catalog) Reset() {
	c.records = map[Identity]*Record{}
	c.order = nil
}
