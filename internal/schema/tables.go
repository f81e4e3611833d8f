package schema

// Reserved log table names. Their negative indices keep them out of the
// sync-relevant table set.
const (
	TableChangeLog          = "change_log"
	TableCondensedChangeLog = "condensed_change_log"
)

// ChangeLogColumns is the shared column layout of both log tables.
func changeLogColumns() []Column {
	return []Column{
		{Name: "uuid", Type: TypeUUID},
		{Name: "table_index", Type: TypeTableIndex},
		{Name: "table_key", Type: TypeString},
		{Name: "change_mode", Type: TypeChangeMode},
		{Name: "updated_at", Type: TypeTimestamp},
	}
}

// DefaultTables returns the purchasing table set: configuration tables
// (indices 1xx), master data (2xx), transactions (3xx) and the two log
// tables (negative indices).
func DefaultTables() []*TableDefinition {
	return []*TableDefinition{
		{
			Name:      "unit_of_measures",
			Index:     101,
			Type:      TableTypeConfiguration,
			KeyColumn: "name",
			SyncData:  true,
			Columns: []Column{
				{Name: "name", Type: TypeName},
				{Name: "description", Type: TypeDescription},
				{Name: "number_of_decimal_places", Type: TypeInteger},
				{Name: "is_default", Type: TypeBoolean},
				{Name: "updated_at", Type: TypeTimestamp},
			},
		},
		{
			Name:      "currencies",
			Index:     102,
			Type:      TableTypeConfiguration,
			KeyColumn: "name",
			SyncData:  true,
			Columns: []Column{
				{Name: "name", Type: TypeName},
				{Name: "description", Type: TypeDescription},
				{Name: "symbol", Type: TypeString},
				{Name: "number_of_decimal_places", Type: TypeInteger},
				{Name: "is_default", Type: TypeBoolean},
				{Name: "updated_at", Type: TypeTimestamp},
			},
		},
		{
			Name:      "manufacturers",
			Index:     201,
			Type:      TableTypeMaster,
			KeyColumn: "uuid",
			SyncData:  true,
			Columns: []Column{
				{Name: "uuid", Type: TypeUUID},
				{Name: "id", Type: TypeID},
				{Name: "name", Type: TypeName},
				{Name: "description", Type: TypeDescription},
				{Name: "address", Type: TypeAddress},
				{Name: "phone_number", Type: TypePhoneNumber},
				{Name: "email_address", Type: TypeEmailAddress},
				{Name: "website", Type: TypeWebsite},
				{Name: "updated_at", Type: TypeTimestamp},
				{Name: "photo_uuid", Type: TypeUUID},
			},
		},
		{
			Name:      "vendors",
			Index:     202,
			Type:      TableTypeMaster,
			KeyColumn: "uuid",
			SyncData:  true,
			Columns: []Column{
				{Name: "uuid", Type: TypeUUID},
				{Name: "id", Type: TypeID},
				{Name: "name", Type: TypeName},
				{Name: "description", Type: TypeDescription},
				{Name: "address", Type: TypeAddress},
				{Name: "geo_location", Type: TypeGeoLocation},
				{Name: "phone_number", Type: TypePhoneNumber},
				{Name: "email_address", Type: TypeEmailAddress},
				{Name: "website", Type: TypeWebsite},
				{Name: "updated_at", Type: TypeTimestamp},
				{Name: "photo_uuid", Type: TypeUUID},
			},
		},
		{
			Name:      "materials",
			Index:     203,
			Type:      TableTypeMaster,
			KeyColumn: "uuid",
			SyncData:  true,
			Columns: []Column{
				{Name: "uuid", Type: TypeUUID},
				{Name: "id", Type: TypeID},
				{Name: "name", Type: TypeName},
				{Name: "description", Type: TypeDescription},
				{Name: "unit_of_measure", Type: TypeUnitOfMeasure},
				{Name: "website", Type: TypeWebsite},
				{Name: "updated_at", Type: TypeTimestamp},
				{Name: "photo_uuid", Type: TypeUUID},
			},
			ForeignKeys: map[string]ForeignKey{
				"unit_of_measure": {Table: "unit_of_measures", Column: "name"},
			},
		},
		{
			Name:      "manufacturer_materials",
			Index:     204,
			Type:      TableTypeMaster,
			KeyColumn: "uuid",
			SyncData:  true,
			Columns: []Column{
				{Name: "uuid", Type: TypeUUID},
				{Name: "manufacturer_uuid", Type: TypeUUID},
				{Name: "material_uuid", Type: TypeUUID},
				{Name: "model", Type: TypeString},
				{Name: "selling_lot_size", Type: TypeQuantity},
				{Name: "max_retail_price", Type: TypeAmount},
				{Name: "currency", Type: TypeCurrency},
				{Name: "website", Type: TypeWebsite},
				{Name: "part_number", Type: TypeString},
				{Name: "updated_at", Type: TypeTimestamp},
				{Name: "photo_uuid", Type: TypeUUID},
			},
			ForeignKeys: map[string]ForeignKey{
				"currency":          {Table: "currencies", Column: "name"},
				"manufacturer_uuid": {Table: "manufacturers", Column: "uuid"},
				"material_uuid":     {Table: "materials", Column: "uuid"},
			},
			LookupColumns: []LookupColumn{
				{SourceColumn: "manufacturer_uuid", Name: "manufacturer_name", TargetColumn: "name"},
				{SourceColumn: "material_uuid", Name: "material_name", TargetColumn: "name"},
				{SourceColumn: "material_uuid", Name: "unit_of_measure", TargetColumn: "unit_of_measure"},
			},
		},
		{
			Name:      "vendor_price_lists",
			Index:     205,
			Type:      TableTypeMaster,
			KeyColumn: "uuid",
			SyncData:  true,
			Columns: []Column{
				{Name: "uuid", Type: TypeUUID},
				{Name: "manufacturer_material_uuid", Type: TypeUUID},
				{Name: "vendor_uuid", Type: TypeUUID},
				{Name: "rate", Type: TypeAmount},
				{Name: "rate_before_tax", Type: TypeAmount},
				{Name: "tax_amount", Type: TypeDouble},
				{Name: "tax_percent", Type: TypePercent},
				{Name: "currency", Type: TypeCurrency},
				{Name: "updated_at", Type: TypeTimestamp},
			},
			ForeignKeys: map[string]ForeignKey{
				"manufacturer_material_uuid": {Table: "manufacturer_materials", Column: "uuid"},
				"vendor_uuid":                {Table: "vendors", Column: "uuid"},
				"currency":                   {Table: "currencies", Column: "name"},
			},
			LookupColumns: []LookupColumn{
				{SourceColumn: "vendor_uuid", Name: "vendor_name", TargetColumn: "name"},
				{SourceColumn: "manufacturer_material_uuid", Name: "manufacturer_name", TargetColumn: "manufacturer_name"},
				{SourceColumn: "manufacturer_material_uuid", Name: "material_name", TargetColumn: "material_name"},
				{SourceColumn: "manufacturer_material_uuid", Name: "model", TargetColumn: "model"},
				{SourceColumn: "manufacturer_material_uuid", Name: "selling_lot_size", TargetColumn: "selling_lot_size"},
				{SourceColumn: "manufacturer_material_uuid", Name: "max_retail_price", TargetColumn: "max_retail_price"},
				{SourceColumn: "manufacturer_material_uuid", Name: "unit_of_measure", TargetColumn: "unit_of_measure"},
			},
		},
		{
			Name:      "projects",
			Index:     251,
			Type:      TableTypeMaster,
			KeyColumn: "uuid",
			SyncData:  true,
			Columns: []Column{
				{Name: "uuid", Type: TypeUUID},
				{Name: "name", Type: TypeName},
				{Name: "description", Type: TypeDescription},
				{Name: "address", Type: TypeString},
				{Name: "phone_number", Type: TypeString},
				{Name: "geo_location", Type: TypeString},
				{Name: "start_date", Type: TypeTimestamp},
				{Name: "end_date", Type: TypeTimestamp},
				{Name: "completed", Type: TypeBoolean},
				{Name: "updated_at", Type: TypeTimestamp},
			},
		},
		{
			Name:      "purchase_orders",
			Index:     301,
			Type:      TableTypeTransaction,
			KeyColumn: "uuid",
			SyncData:  true,
			Columns: []Column{
				{Name: "uuid", Type: TypeUUID},
				{Name: "id", Type: TypeID},
				{Name: "vendor_uuid", Type: TypeUUID},
				{Name: "date", Type: TypeTimestamp},
				{Name: "base_price", Type: TypeAmount},
				{Name: "tax_amount", Type: TypeAmount},
				{Name: "total_amount", Type: TypeAmount},
				{Name: "currency", Type: TypeCurrency},
				{Name: "order_date", Type: TypeTimestamp},
				{Name: "expected_delivery_date", Type: TypeTimestamp},
				{Name: "amount_paid", Type: TypeAmount},
				{Name: "amount_balance", Type: TypeAmount},
				{Name: "completed", Type: TypeBoolean},
				{Name: "basket_uuid", Type: TypeUUID},
				{Name: "quotation_uuid", Type: TypeUUID},
				{Name: "project_uuid", Type: TypeUUID},
				{Name: "description", Type: TypeDescription},
				{Name: "delivery_address", Type: TypeAddress},
				{Name: "phone_number", Type: TypePhoneNumber},
				{Name: "updated_at", Type: TypeTimestamp},
			},
			ForeignKeys: map[string]ForeignKey{
				"vendor_uuid":    {Table: "vendors", Column: "uuid"},
				"basket_uuid":    {Table: "basket_headers", Column: "uuid"},
				"quotation_uuid": {Table: "quotations", Column: "uuid"},
				"project_uuid":   {Table: "projects", Column: "uuid"},
				"currency":       {Table: "currencies", Column: "name"},
			},
			LookupColumns: []LookupColumn{
				{SourceColumn: "vendor_uuid", Name: "vendor_name", TargetColumn: "name"},
			},
		},
		{
			Name:      "purchase_order_items",
			Index:     302,
			Type:      TableTypeTransaction,
			KeyColumn: "uuid",
			SyncData:  true,
			Columns: []Column{
				{Name: "uuid", Type: TypeUUID},
				{Name: "purchase_order_uuid", Type: TypeUUID},
				{Name: "manufacturer_material_uuid", Type: TypeUUID},
				{Name: "material_uuid", Type: TypeUUID},
				{Name: "model", Type: TypeString},
				{Name: "quantity", Type: TypeQuantity},
				{Name: "rate", Type: TypeAmount},
				{Name: "rate_before_tax", Type: TypeAmount},
				{Name: "base_price", Type: TypeAmount},
				{Name: "tax_percent", Type: TypePercent},
				{Name: "tax_amount", Type: TypeAmount},
				{Name: "total_amount", Type: TypeAmount},
				{Name: "currency", Type: TypeCurrency},
				{Name: "basket_item_uuid", Type: TypeUUID},
				{Name: "quotation_item_uuid", Type: TypeUUID},
				{Name: "unit_of_measure", Type: TypeString},
				{Name: "updated_at", Type: TypeTimestamp},
			},
			ForeignKeys: map[string]ForeignKey{
				"purchase_order_uuid":        {Table: "purchase_orders", Column: "uuid"},
				"manufacturer_material_uuid": {Table: "manufacturer_materials", Column: "uuid"},
				"material_uuid":              {Table: "materials", Column: "uuid"},
				"basket_item_uuid":           {Table: "basket_items", Column: "uuid"},
				"quotation_item_uuid":        {Table: "quotation_items", Column: "uuid"},
				"unit_of_measure":            {Table: "unit_of_measures", Column: "name"},
				"currency":                   {Table: "currencies", Column: "name"},
			},
			LookupColumns: []LookupColumn{
				{SourceColumn: "material_uuid", Name: "material_name", TargetColumn: "name"},
				{SourceColumn: "manufacturer_material_uuid", Name: "manufacturer_name", TargetColumn: "manufacturer_name"},
				{SourceColumn: "manufacturer_material_uuid", Name: "selling_lot_size", TargetColumn: "selling_lot_size"},
				{SourceColumn: "manufacturer_material_uuid", Name: "max_retail_price", TargetColumn: "max_retail_price"},
			},
		},
		{
			Name:      "purchase_order_payments",
			Index:     303,
			Type:      TableTypeTransaction,
			KeyColumn: "uuid",
			SyncData:  true,
			Columns: []Column{
				{Name: "uuid", Type: TypeUUID},
				{Name: "purchase_order_uuid", Type: TypeUUID},
				{Name: "date", Type: TypeTimestamp},
				{Name: "amount", Type: TypeAmount},
				{Name: "currency", Type: TypeCurrency},
				{Name: "upi_ref_number", Type: TypeString},
				{Name: "updated_at", Type: TypeTimestamp},
			},
			ForeignKeys: map[string]ForeignKey{
				"purchase_order_uuid": {Table: "purchase_orders", Column: "uuid"},
				"currency":            {Table: "currencies", Column: "name"},
			},
		},
		{
			Name:      "basket_headers",
			Index:     311,
			Type:      TableTypeTransaction,
			KeyColumn: "uuid",
			SyncData:  true,
			Columns: []Column{
				{Name: "uuid", Type: TypeUUID},
				{Name: "id", Type: TypeID},
				{Name: "date", Type: TypeTimestamp},
				{Name: "description", Type: TypeDescription},
				{Name: "expected_delivery_date", Type: TypeTimestamp},
				{Name: "total_price", Type: TypeAmount},
				{Name: "currency", Type: TypeCurrency},
				{Name: "number_of_items", Type: TypeInteger},
				{Name: "project_uuid", Type: TypeUUID},
				{Name: "delivery_address", Type: TypeAddress},
				{Name: "phone_number", Type: TypePhoneNumber},
				{Name: "updated_at", Type: TypeTimestamp},
			},
			ForeignKeys: map[string]ForeignKey{
				"project_uuid": {Table: "projects", Column: "uuid"},
				"currency":     {Table: "currencies", Column: "name"},
			},
		},
		{
			Name:      "basket_items",
			Index:     312,
			Type:      TableTypeTransaction,
			KeyColumn: "uuid",
			SyncData:  true,
			Columns: []Column{
				{Name: "uuid", Type: TypeUUID},
				{Name: "basket_uuid", Type: TypeUUID},
				{Name: "id", Type: TypeID},
				{Name: "manufacturer_material_uuid", Type: TypeUUID},
				{Name: "material_uuid", Type: TypeUUID},
				{Name: "model", Type: TypeString},
				{Name: "manufacturer_uuid", Type: TypeUUID},
				{Name: "quantity", Type: TypeQuantity},
				{Name: "unit_of_measure", Type: TypeString},
				{Name: "max_retail_price", Type: TypeAmount},
				{Name: "price", Type: TypeAmount},
				{Name: "currency", Type: TypeCurrency},
				{Name: "updated_at", Type: TypeTimestamp},
			},
			ForeignKeys: map[string]ForeignKey{
				"basket_uuid":                {Table: "basket_headers", Column: "uuid"},
				"manufacturer_material_uuid": {Table: "manufacturer_materials", Column: "uuid"},
				"material_uuid":              {Table: "materials", Column: "uuid"},
				"manufacturer_uuid":          {Table: "manufacturers", Column: "uuid"},
				"unit_of_measure":            {Table: "unit_of_measures", Column: "name"},
				"currency":                   {Table: "currencies", Column: "name"},
			},
			LookupColumns: []LookupColumn{
				{SourceColumn: "manufacturer_uuid", Name: "manufacturer_name", TargetColumn: "name"},
				{SourceColumn: "material_uuid", Name: "material_name", TargetColumn: "name"},
				{SourceColumn: "manufacturer_material_uuid", Name: "selling_lot_size", TargetColumn: "selling_lot_size"},
			},
		},
		{
			Name:      "quotations",
			Index:     321,
			Type:      TableTypeTransaction,
			KeyColumn: "uuid",
			SyncData:  true,
			Columns: []Column{
				{Name: "uuid", Type: TypeUUID},
				{Name: "id", Type: TypeID},
				{Name: "basket_uuid", Type: TypeUUID},
				{Name: "vendor_uuid", Type: TypeUUID},
				{Name: "date", Type: TypeTimestamp},
				{Name: "expected_delivery_date", Type: TypeTimestamp},
				{Name: "base_price", Type: TypeAmount},
				{Name: "tax_amount", Type: TypeAmount},
				{Name: "total_amount", Type: TypeAmount},
				{Name: "currency", Type: TypeCurrency},
				{Name: "number_of_available_items", Type: TypeInteger},
				{Name: "number_of_unavailable_items", Type: TypeInteger},
				{Name: "project_uuid", Type: TypeUUID},
				{Name: "description", Type: TypeDescription},
				{Name: "updated_at", Type: TypeTimestamp},
			},
			ForeignKeys: map[string]ForeignKey{
				"basket_uuid":  {Table: "basket_headers", Column: "uuid"},
				"vendor_uuid":  {Table: "vendors", Column: "uuid"},
				"project_uuid": {Table: "projects", Column: "uuid"},
				"currency":     {Table: "currencies", Column: "name"},
			},
			LookupColumns: []LookupColumn{
				{SourceColumn: "vendor_uuid", Name: "vendor_name", TargetColumn: "name"},
			},
		},
		{
			Name:      "quotation_items",
			Index:     322,
			Type:      TableTypeTransaction,
			KeyColumn: "uuid",
			SyncData:  true,
			Columns: []Column{
				{Name: "uuid", Type: TypeUUID},
				{Name: "id", Type: TypeID},
				{Name: "quotation_uuid", Type: TypeUUID},
				{Name: "basket_uuid", Type: TypeUUID},
				{Name: "basket_item_uuid", Type: TypeUUID},
				{Name: "vendor_price_list_uuid", Type: TypeUUID},
				{Name: "item_available_with_vendor", Type: TypeBoolean},
				{Name: "manufacturer_material_uuid", Type: TypeUUID},
				{Name: "material_uuid", Type: TypeUUID},
				{Name: "model", Type: TypeString},
				{Name: "quantity", Type: TypeQuantity},
				{Name: "max_retail_price", Type: TypeAmount},
				{Name: "rate", Type: TypeAmount},
				{Name: "rate_before_tax", Type: TypeAmount},
				{Name: "base_price", Type: TypeAmount},
				{Name: "tax_percent", Type: TypePercent},
				{Name: "tax_amount", Type: TypeAmount},
				{Name: "total_amount", Type: TypeAmount},
				{Name: "currency", Type: TypeCurrency},
				{Name: "unit_of_measure", Type: TypeString},
				{Name: "updated_at", Type: TypeTimestamp},
			},
			ForeignKeys: map[string]ForeignKey{
				"quotation_uuid":             {Table: "quotations", Column: "uuid"},
				"basket_uuid":                {Table: "basket_headers", Column: "uuid"},
				"basket_item_uuid":           {Table: "basket_items", Column: "uuid"},
				"vendor_price_list_uuid":     {Table: "vendor_price_lists", Column: "uuid"},
				"manufacturer_material_uuid": {Table: "manufacturer_materials", Column: "uuid"},
				"material_uuid":              {Table: "materials", Column: "uuid"},
				"unit_of_measure":            {Table: "unit_of_measures", Column: "name"},
				"currency":                   {Table: "currencies", Column: "name"},
			},
			LookupColumns: []LookupColumn{
				{SourceColumn: "material_uuid", Name: "material_name", TargetColumn: "name"},
				{SourceColumn: "manufacturer_material_uuid", Name: "selling_lot_size", TargetColumn: "selling_lot_size"},
				{SourceColumn: "manufacturer_material_uuid", Name: "manufacturer_name", TargetColumn: "manufacturer_name"},
				{SourceColumn: "vendor_price_list_uuid", Name: "vendor_name", TargetColumn: "vendor_name"},
			},
		},
		{
			Name:      TableChangeLog,
			Index:     -1,
			Type:      TableTypeLog,
			KeyColumn: "uuid",
			Columns:   changeLogColumns(),
		},
		{
			Name:      TableCondensedChangeLog,
			Index:     -2,
			Type:      TableTypeLog,
			KeyColumn: "uuid",
			Columns:   changeLogColumns(),
		},
	}
}

// DefaultRegistry builds the registry for the purchasing table set.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(DefaultTables())
}
