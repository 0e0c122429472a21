package backup

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// encodeBSONRows writes rows as concatenated BSON documents, the layout
// mongodump uses for .bson files.
func encodeBSONRows(rows []map[string]interface{}) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	for _, row := range rows {
		doc := make(map[string]interface{}, len(row))
		for key, value := range row {
			if b, ok := value.([]byte); ok {
				value = string(b)
			}
			doc[key] = value
		}
		b, err := bson.Marshal(doc)
		if err != nil {
			return nil, err
		}
		buffer.Write(b)
	}
	return buffer.Bytes(), nil
}

func decodeBSONRows(payload []byte) ([]map[string]interface{}, error) {
	rows := make([]map[string]interface{}, 0)
	cursor := 0
	for cursor < len(payload) {
		if cursor+4 > len(payload) {
			return nil, fmt.Errorf("%w: truncated document header", errInvalidArchive)
		}
		docLen := int(int32(binary.LittleEndian.Uint32(payload[cursor : cursor+4])))
		if docLen <= 4 || cursor+docLen > len(payload) {
			return nil, fmt.Errorf("%w: bad document length", errInvalidArchive)
		}
		var raw bson.M
		if err := bson.Unmarshal(payload[cursor:cursor+docLen], &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidArchive, err)
		}
		row := make(map[string]interface{}, len(raw))
		for key, value := range raw {
			row[key] = normalizeBSONValue(value)
		}
		rows = append(rows, row)
		cursor += docLen
	}
	return rows, nil
}

func normalizeBSONValue(value interface{}) interface{} {
	switch v := value.(type) {
	case primitive.Null, primitive.Undefined:
		return nil
	case primitive.DateTime:
		return v.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(v.T), 0).UTC()
	case primitive.ObjectID:
		return v.Hex()
	case primitive.Binary:
		return string(v.Data)
	default:
		return value
	}
}
