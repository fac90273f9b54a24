package variant

// DictEntry is one key/value pair of a Dictionary.
type DictEntry struct {
	Key   Value
	Value Value
}

// Dictionary is an insertion-ordered map with Value keys. Keys are matched
// with Equal, so String("a") and StringName("a") are distinct keys.
type Dictionary []DictEntry

// NewDictionary builds a Dictionary from alternating key, value arguments.
// It panics on an odd argument count.
func NewDictionary(kv ...Value) Dictionary {
	if len(kv)%2 != 0 {
		panic("variant: NewDictionary needs key/value pairs")
	}
	d := make(Dictionary, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		d = d.Set(kv[i], kv[i+1])
	}
	return d
}

func (d Dictionary) index(key Value) int {
	for i, e := range d {
		if Equal(e.Key, key) {
			return i
		}
	}
	return -1
}

// Get returns the value stored under key.
func (d Dictionary) Get(key Value) (Value, bool) {
	if i := d.index(key); i >= 0 {
		return d[i].Value, true
	}
	return nil, false
}

func (d Dictionary) Has(key Value) bool { return d.index(key) >= 0 }

// Set replaces the value under key in place, or appends a new entry.
// Like append, the result must be assigned back.
func (d Dictionary) Set(key, value Value) Dictionary {
	if i := d.index(key); i >= 0 {
		d[i].Value = value
		return d
	}
	return append(d, DictEntry{Key: key, Value: value})
}

// Delete removes key, preserving the order of the remaining entries.
func (d Dictionary) Delete(key Value) Dictionary {
	i := d.index(key)
	if i < 0 {
		return d
	}
	return append(d[:i:i], d[i+1:]...)
}

// Keys returns the keys in insertion order.
func (d Dictionary) Keys() []Value {
	keys := make([]Value, len(d))
	for i, e := range d {
		keys[i] = e.Key
	}
	return keys
}

func (d Dictionary) Len() int { return len(d) }
