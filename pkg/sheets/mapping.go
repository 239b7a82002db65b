package sheets

import "github.com/communitydesk/communitydesk/pkg/stores"

// Column pairs a local column with its published header.
type Column struct {
	Field  string
	Header string
}

// Mapping binds a local table to a worksheet and renames its columns.
// Local columns that are not listed, including id, are never published.
type Mapping struct {
	Table   string
	Sheet   string
	Columns []Column
}

// DefaultMappings are the published worksheets, one per table.
var DefaultMappings = []Mapping{
	{
		Table: stores.TablePartners,
		Sheet: "الشركاء",
		Columns: []Column{
			{Field: "name", Header: "الاسم"},
			{Field: "participation_type", Header: "نوع المشاركة"},
			{Field: "expertise", Header: "المجال / الخبرة"},
			{Field: "interaction_level", Header: "مستوى التفاعل"},
			{Field: "phone", Header: "رقم الجوال"},
		},
	},
	{
		Table: stores.TableActionPlan,
		Sheet: "خطة العمل",
		Columns: []Column{
			{Field: "objective", Header: "الهدف"},
			{Field: "activity", Header: "النشاط/المبادرة"},
			{Field: "responsible_party", Header: "المسؤول"},
			{Field: "timeframe", Header: "الجدول الزمني"},
			{Field: "kpi", Header: "مؤشر الأداء"},
			{Field: "priority", Header: "الأولوية"},
			{Field: "status", Header: "الحالة"},
			{Field: "task_type", Header: "نوع المهمة"},
		},
	},
	{
		Table: stores.TableEvents,
		Sheet: "الفعاليات",
		Columns: []Column{
			{Field: "name", Header: "اسم الفعالية"},
			{Field: "date", Header: "التاريخ"},
			{Field: "location", Header: "المكان"},
			{Field: "attendees_count", Header: "عدد الحضور"},
			{Field: "rating", Header: "التقييم"},
		},
	},
	{
		Table: stores.TableReports,
		Sheet: "التقارير",
		Columns: []Column{
			{Field: "report_date", Header: "تاريخ التقرير"},
			{Field: "report_content", Header: "محتوى التقرير"},
		},
	},
}

// MappingFor returns the default mapping of table.
func MappingFor(table string) (Mapping, bool) {
	for _, m := range DefaultMappings {
		if m.Table == table {
			return m, true
		}
	}
	return Mapping{}, false
}

// Headers returns the published headers in order.
func (m Mapping) Headers() []string {
	headers := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		headers[i] = c.Header
	}
	return headers
}

// FieldFor returns the local column published under header.
func (m Mapping) FieldFor(header string) (string, bool) {
	for _, c := range m.Columns {
		if c.Header == header {
			return c.Field, true
		}
	}
	return "", false
}

// HeaderFor returns the header a local column is published under.
func (m Mapping) HeaderFor(field string) (string, bool) {
	for _, c := range m.Columns {
		if c.Field == field {
			return c.Header, true
		}
	}
	return "", false
}
