// Package catalog compiles CUE dataset descriptors into Sequence shapes.
//
// A descriptor names the table behind each sequence level, its fields and
// how nested rows link to their parent row:
//
//	dataset: stations: {
//	    description: "CTD stations"
//	    sequence: {
//	        name:  "stations"
//	        table: "stations"
//	        key:   "id"
//	        fields: [
//	            {name: "id", type: "Int32"},
//	            {name: "name", type: "String", column: "station_name"},
//	        ]
//	        child: {
//	            name:       "casts"
//	            table:      "casts"
//	            parent_key: "station_id"
//	            fields: [{name: "depth", type: "Float64"}]
//	        }
//	    }
//	}
//
// key names a field of the parent level; parent_key names the column of the
// child table that holds the matching value.
package catalog
