package database

import (
	"fmt"
	"strconv"
	"strings"
)

// Engine names a supported relational engine.
type Engine string

const (
	EngineSQLite   Engine = "sqlite"
	EnginePostgres Engine = "postgres"
)

// KeyValue is an extra connection option kept in its original spelling.
type KeyValue struct {
	Key   string
	Value string
}

// Descriptor is the structured form of a connection string. Values are
// copied by WithCatalog and Clone; a descriptor shared as a template is never
// modified in place.
type Descriptor struct {
	Engine   Engine
	Host     string // server name, or the data directory for sqlite
	Port     int
	Catalog  string
	User     string
	Password string
	Trusted  bool
	Extra    []KeyValue
}

// ParseDescriptor parses an ADO-style "Key=Value;Key=Value" connection
// string. Keys are case-insensitive and common synonyms are accepted
// (Server/Host/Data Source, Database/Initial Catalog, User Id/User/Username,
// Password/Pwd, Trusted_Connection/Integrated Security). Values containing
// ';' must be double-quoted; a doubled quote inside is a literal quote.
func ParseDescriptor(s string) (Descriptor, error) {
	pairs, err := splitPairs(s)
	if err != nil {
		return Descriptor{}, err
	}

	var d Descriptor
	for _, p := range pairs {
		key, value := p.Key, p.Value
		switch normalizeKey(key) {
		case "engine", "provider":
			d.Engine = Engine(strings.ToLower(value))
		case "server", "host", "datasource", "address":
			host, port, found := strings.Cut(value, ",")
			d.Host = strings.TrimSpace(host)
			if found {
				if d.Port, err = parsePort(port); err != nil {
					return Descriptor{}, err
				}
			}
		case "port":
			if d.Port, err = parsePort(value); err != nil {
				return Descriptor{}, err
			}
		case "database", "initialcatalog", "dbname":
			d.Catalog = value
		case "userid", "user", "username", "uid":
			d.User = value
		case "password", "pwd":
			d.Password = value
		case "trustedconnection", "integratedsecurity":
			switch strings.ToLower(value) {
			case "true", "yes", "sspi":
				d.Trusted = true
			case "false", "no", "":
				d.Trusted = false
			default:
				return Descriptor{}, fmt.Errorf("invalid value %q for %s", value, key)
			}
		default:
			d.Extra = append(d.Extra, KeyValue{Key: key, Value: value})
		}
	}

	if d.Engine == "" {
		return Descriptor{}, fmt.Errorf("connection string has no Engine")
	}
	if _, err := dialectFor(d.Engine); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// Clone returns a deep copy.
func (d Descriptor) Clone() Descriptor {
	if d.Extra != nil {
		extra := make([]KeyValue, len(d.Extra))
		copy(extra, d.Extra)
		d.Extra = extra
	}
	return d
}

// WithCatalog returns a copy pointing at another catalog.
func (d Descriptor) WithCatalog(catalog string) Descriptor {
	c := d.Clone()
	c.Catalog = catalog
	return c
}

// Get looks up an extra option by case-insensitive key.
func (d Descriptor) Get(key string) (string, bool) {
	want := normalizeKey(key)
	for _, kv := range d.Extra {
		if normalizeKey(kv.Key) == want {
			return kv.Value, true
		}
	}
	return "", false
}

// Validate checks the engine and the catalog name against the engine's
// identifier rules.
func (d Descriptor) Validate() error {
	dl, err := dialectFor(d.Engine)
	if err != nil {
		return err
	}
	return dl.validateCatalog(d.Catalog)
}

// String renders the canonical connection string.
func (d Descriptor) String() string {
	return d.render(false)
}

// Redacted renders the connection string with the password masked.
func (d Descriptor) Redacted() string {
	return d.render(true)
}

func (d Descriptor) render(redact bool) string {
	var parts []string
	add := func(k, v string) { parts = append(parts, k+"="+quoteValue(v)) }

	add("Engine", string(d.Engine))
	if d.Host != "" {
		if d.Engine == EngineSQLite {
			add("Data Source", d.Host)
		} else {
			add("Host", d.Host)
		}
	}
	if d.Port > 0 {
		add("Port", strconv.Itoa(d.Port))
	}
	if d.Catalog != "" {
		add("Database", d.Catalog)
	}
	if d.User != "" {
		add("User Id", d.User)
	}
	if d.Password != "" {
		if redact {
			add("Password", "*****")
		} else {
			add("Password", d.Password)
		}
	}
	if d.Trusted {
		add("Trusted_Connection", "True")
	}
	for _, kv := range d.Extra {
		add(kv.Key, kv.Value)
	}
	return strings.Join(parts, ";")
}

func splitPairs(s string) ([]KeyValue, error) {
	var pairs []KeyValue
	i := 0
	for i < len(s) {
		for i < len(s) && (s[i] == ';' || s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i >= len(s) {
			break
		}

		eq := strings.IndexByte(s[i:], '=')
		if eq < 0 {
			return nil, fmt.Errorf("malformed connection string near %q: missing '='", s[i:])
		}
		key := strings.TrimSpace(s[i : i+eq])
		if key == "" {
			return nil, fmt.Errorf("malformed connection string: empty key")
		}
		i += eq + 1
		for i < len(s) && s[i] == ' ' {
			i++
		}

		var value strings.Builder
		if i < len(s) && s[i] == '"' {
			i++
			closed := false
			for i < len(s) {
				if s[i] == '"' {
					if i+1 < len(s) && s[i+1] == '"' {
						value.WriteByte('"')
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				value.WriteByte(s[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("malformed connection string: unterminated quote for %s", key)
			}
			for i < len(s) && s[i] != ';' {
				if s[i] != ' ' {
					return nil, fmt.Errorf("malformed connection string: text after quoted value for %s", key)
				}
				i++
			}
		} else {
			end := strings.IndexByte(s[i:], ';')
			if end < 0 {
				end = len(s) - i
			}
			value.WriteString(strings.TrimSpace(s[i : i+end]))
			i += end
		}
		pairs = append(pairs, KeyValue{Key: key, Value: value.String()})
	}
	return pairs, nil
}

func quoteValue(v string) string {
	if v == "" || (!strings.ContainsAny(v, `;"`) && strings.TrimSpace(v) == v) {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func normalizeKey(k string) string {
	k = strings.ToLower(k)
	return strings.NewReplacer(" ", "", "_", "").Replace(k)
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return port, nil
}
