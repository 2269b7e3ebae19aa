package foxglove

const DefaultSchema = `{
  "type": "object",
  "properties": {
    "ts": { "type": "string" },
    "source": { "type": "string" },
    "len": { "type": "integer" },
    "present": { "type": "array", "items": { "type": "string" } },
    "fields": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "word": { "type": "integer" },
          "bit": { "type": "integer" },
          "name": { "type": "string" },
          "ns": { "type": "string" },
          "oui": { "type": "string" },
          "sub_ns": { "type": "integer" },
          "offset": { "type": "integer" },
          "length": { "type": "integer" },
          "hex": { "type": "string" }
        }
      }
    },
    "summary": { "type": "object", "additionalProperties": true },
    "dot11": { "type": "object", "additionalProperties": true },
    "error": { "type": "string" }
  },
  "required": ["ts", "len", "fields"]
}`

type Config struct {
	WSAddr         string
	Name           string
	Topic          string
	ChannelID      uint64
	SchemaName     string
	SchemaEncoding string
	Schema         string
	Encoding       string
	SendBuf        int
}

func DefaultConfig() Config {
	return Config{
		WSAddr:         "127.0.0.1:8765",
		Name:           "rtapmon",
		Topic:          "radiotap/frame",
		ChannelID:      1,
		SchemaName:     "rtapmon.Frame",
		SchemaEncoding: "jsonschema",
		Schema:         DefaultSchema,
		Encoding:       "json",
		SendBuf:        256,
	}
}

// withDefaults fills every zero field from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WSAddr == "" {
		c.WSAddr = d.WSAddr
	}
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.Topic == "" {
		c.Topic = d.Topic
	}
	if c.ChannelID == 0 {
		c.ChannelID = d.ChannelID
	}
	if c.SchemaName == "" {
		c.SchemaName = d.SchemaName
	}
	if c.SchemaEncoding == "" {
		c.SchemaEncoding = d.SchemaEncoding
	}
	if c.Schema == "" {
		c.Schema = d.Schema
	}
	if c.Encoding == "" {
		c.Encoding = d.Encoding
	}
	if c.SendBuf <= 0 {
		c.SendBuf = d.SendBuf
	}
	return c
}
