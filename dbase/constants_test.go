package dbase

import "testing"

func TestDataTypeNames(t *testing.T) {
	for _, dataType := range DataTypes {
		name := dataType.String()
		if name == "UNKNOWN" {
			t.Errorf("data type %v has no name", uint8(dataType))
		}
		if got := DataTypeByName(name); got != dataType {
			t.Errorf("DataTypeByName(%q) = %v, want %v", name, got, dataType)
		}
	}
	if got := DataTypeByName("floating_point"); got != Float {
		t.Errorf("expected case insensitive lookup, got %v", got)
	}
	if got := DataTypeByName("nothing"); got != Unknown {
		t.Errorf("expected Unknown, got %v", got)
	}
	if got := DataType(200).String(); got != "UNKNOWN" {
		t.Errorf("expected UNKNOWN for out of range type, got %v", got)
	}
}

func TestDataTypeTags(t *testing.T) {
	tests := []struct {
		tag      byte
		version  FileVersion
		expected DataType
	}{
		{'C', FoxPro, Character},
		{'V', FoxPro, Varchar},
		{'Q', FoxPro, Varbinary},
		{'N', FoxBasePlus, Numeric},
		{'F', FoxBasePlus, Float},
		{'B', FoxPro, Double},
		{'B', FoxBasePlus, Binary},
		{'O', DBaseLevel7, Double},
		{'I', FoxPro, Long},
		{'+', DBaseLevel7, Autoincrement},
		{'Y', FoxPro, Currency},
		{'T', FoxPro, Timestamp},
		{'@', DBaseLevel7, TimestampDBase7},
		{'0', FoxPro, NullFlags},
		{'M', FoxBasePlusMemo, Memo},
		{'W', FoxPro, Blob},
		{'G', FoxPro, General},
		{'P', FoxPro, Picture},
		{'X', FoxPro, Unknown},
	}
	for _, tt := range tests {
		t.Run(string(tt.tag), func(t *testing.T) {
			if got := ParseDataType(tt.tag, tt.version); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDataTypeTagRoundTrip(t *testing.T) {
	for _, version := range []FileVersion{FoxPro, FoxBasePlus} {
		for _, dataType := range DataTypes {
			tag := dataType.Tag(version)
			got := ParseDataType(tag, version)
			if dataType == Binary && version.foxPro() {
				if got != Blob {
					t.Errorf("binary in FoxPro table should be stored as blob, got %v", got)
				}
				continue
			}
			if got != dataType {
				t.Errorf("version 0x%02x: %v -> %q -> %v", version, dataType, tag, got)
			}
		}
	}
}

func TestFixedLength(t *testing.T) {
	tests := map[DataType]uint8{
		Logical:   1,
		Long:      4,
		Memo:      4,
		Date:      8,
		Double:    8,
		Timestamp: 8,
		Character: 0,
		Numeric:   0,
	}
	for dataType, expected := range tests {
		if got := dataType.fixedLength(); got != expected {
			t.Errorf("%v: got %d, want %d", dataType, got, expected)
		}
	}
}
