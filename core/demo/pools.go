package demo

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

// Every pool entry carries all locales, so one draw gives a coherent value in each of them.

var firstNames = []LocalizedValue{
	{EN: "Aarav", HI: "आरव", UR: "آرو"},
	{EN: "Vivaan", HI: "विवान", UR: "ویوان"},
	{EN: "Aditya", HI: "आदित्य", UR: "آدتیہ"},
	{EN: "Ayaan", HI: "अयान", UR: "ایان"},
	{EN: "Zaid", HI: "ज़ैद", UR: "زید"},
	{EN: "Arjun", HI: "अर्जुन", UR: "ارجن"},
	{EN: "Imran", HI: "इमरान", UR: "عمران"},
	{EN: "Rahul", HI: "राहुल", UR: "راہل"},
	{EN: "Mohammed", HI: "मोहम्मद", UR: "محمد"},
	{EN: "Ali", HI: "अली", UR: "علی"},
	{EN: "Rohan", HI: "रोहन", UR: "روہن"},
	{EN: "Hamza", HI: "हमज़ा", UR: "حمزہ"},
	{EN: "Kabir", HI: "कबीर", UR: "کبیر"},
	{EN: "Fatima", HI: "फ़ातिमा", UR: "فاطمہ"},
	{EN: "Ananya", HI: "अनन्या", UR: "اننیا"},
	{EN: "Sara", HI: "सारा", UR: "سارہ"},
	{EN: "Aisha", HI: "आयशा", UR: "عائشہ"},
	{EN: "Diya", HI: "दिया", UR: "دیا"},
	{EN: "Maryam", HI: "मरियम", UR: "مریم"},
	{EN: "Isha", HI: "ईशा", UR: "عیشا"},
	{EN: "Zoya", HI: "ज़ोया", UR: "زویا"},
	{EN: "Kavya", HI: "काव्या", UR: "کاویہ"},
	{EN: "Hira", HI: "हिरा", UR: "حرا"},
	{EN: "Meera", HI: "मीरा", UR: "میرا"},
}

var fatherNames = []LocalizedValue{
	{EN: "Rajesh", HI: "राजेश", UR: "راجیش"},
	{EN: "Suresh", HI: "सुरेश", UR: "سریش"},
	{EN: "Abdul", HI: "अब्दुल", UR: "عبدل"},
	{EN: "Salim", HI: "सलीम", UR: "سلیم"},
	{EN: "Anil", HI: "अनिल", UR: "انل"},
	{EN: "Yusuf", HI: "यूसुफ़", UR: "یوسف"},
	{EN: "Vijay", HI: "विजय", UR: "وجے"},
	{EN: "Iqbal", HI: "इक़बाल", UR: "اقبال"},
	{EN: "Ramesh", HI: "रमेश", UR: "رمیش"},
	{EN: "Farooq", HI: "फ़ारूक़", UR: "فاروق"},
	{EN: "Sanjay", HI: "संजय", UR: "سنجے"},
	{EN: "Tariq", HI: "तारिक़", UR: "طارق"},
}

var motherNames = []LocalizedValue{
	{EN: "Sunita", HI: "सुनीता", UR: "سنیتا"},
	{EN: "Rehana", HI: "रेहाना", UR: "ریحانہ"},
	{EN: "Priya", HI: "प्रिया", UR: "پریا"},
	{EN: "Nasreen", HI: "नसरीन", UR: "نسرین"},
	{EN: "Kavita", HI: "कविता", UR: "کویتا"},
	{EN: "Shabana", HI: "शबाना", UR: "شبانہ"},
	{EN: "Meena", HI: "मीना", UR: "مینا"},
	{EN: "Zainab", HI: "ज़ैनब", UR: "زینب"},
	{EN: "Anjali", HI: "अंजलि", UR: "انجلی"},
	{EN: "Rukhsar", HI: "रुख़सार", UR: "رخسار"},
	{EN: "Pooja", HI: "पूजा", UR: "پوجا"},
	{EN: "Shazia", HI: "शाज़िया", UR: "شازیہ"},
}

var surnames = []LocalizedValue{
	{EN: "Sharma", HI: "शर्मा", UR: "شرما"},
	{EN: "Khan", HI: "ख़ान", UR: "خان"},
	{EN: "Verma", HI: "वर्मा", UR: "ورما"},
	{EN: "Ansari", HI: "अंसारी", UR: "انصاری"},
	{EN: "Gupta", HI: "गुप्ता", UR: "گپتا"},
	{EN: "Qureshi", HI: "क़ुरैशी", UR: "قریشی"},
	{EN: "Singh", HI: "सिंह", UR: "سنگھ"},
	{EN: "Siddiqui", HI: "सिद्दीक़ी", UR: "صدیقی"},
	{EN: "Yadav", HI: "यादव", UR: "یادو"},
	{EN: "Shaikh", HI: "शेख़", UR: "شیخ"},
}

type place struct {
	City  LocalizedValue
	State LocalizedValue
}

var places = []place{
	{City: LocalizedValue{EN: "Lucknow", HI: "लखनऊ", UR: "لکھنؤ"}, State: LocalizedValue{EN: "Uttar Pradesh", HI: "उत्तर प्रदेश", UR: "اتر پردیش"}},
	{City: LocalizedValue{EN: "Aligarh", HI: "अलीगढ़", UR: "علی گڑھ"}, State: LocalizedValue{EN: "Uttar Pradesh", HI: "उत्तर प्रदेश", UR: "اتر پردیش"}},
	{City: LocalizedValue{EN: "Delhi", HI: "दिल्ली", UR: "دہلی"}, State: LocalizedValue{EN: "Delhi", HI: "दिल्ली", UR: "دہلی"}},
	{City: LocalizedValue{EN: "Hyderabad", HI: "हैदराबाद", UR: "حیدرآباد"}, State: LocalizedValue{EN: "Telangana", HI: "तेलंगाना", UR: "تلنگانہ"}},
	{City: LocalizedValue{EN: "Bhopal", HI: "भोपाल", UR: "بھوپال"}, State: LocalizedValue{EN: "Madhya Pradesh", HI: "मध्य प्रदेश", UR: "مدھیہ پردیش"}},
	{City: LocalizedValue{EN: "Mumbai", HI: "मुंबई", UR: "ممبئی"}, State: LocalizedValue{EN: "Maharashtra", HI: "महाराष्ट्र", UR: "مہاراشٹر"}},
	{City: LocalizedValue{EN: "Patna", HI: "पटना", UR: "پٹنہ"}, State: LocalizedValue{EN: "Bihar", HI: "बिहार", UR: "بہار"}},
	{City: LocalizedValue{EN: "Jaipur", HI: "जयपुर", UR: "جے پور"}, State: LocalizedValue{EN: "Rajasthan", HI: "राजस्थान", UR: "راجستھان"}},
}

var absenceRemarks = []LocalizedValue{
	{EN: "Sick leave", HI: "बीमारी की छुट्टी", UR: "بیماری کی چھٹی"},
	{EN: "Family function", HI: "पारिवारिक समारोह", UR: "خاندانی تقریب"},
	{EN: "Informed by parent", HI: "अभिभावक द्वारा सूचित", UR: "والدین نے اطلاع دی"},
	{EN: "Not informed", HI: "सूचना नहीं दी", UR: "اطلاع نہیں دی"},
	{EN: "Travelling", HI: "यात्रा पर", UR: "سفر پر"},
}

var (
	classes  = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	sections = []string{"A", "B", "C"}
)

type staffRole struct {
	key    string
	role   string
	weight int
}

// staffRoles is weighted towards teachers.
var staffRoles = []staffRole{
	{key: "teacher", role: user.RoleTeacher, weight: 6},
	{key: "accountant", role: user.RoleAccountant, weight: 2},
	{key: "admin", role: user.RoleAdmin, weight: 1},
}

func checkPools() error {
	pools := map[string][]LocalizedValue{
		"first names":     firstNames,
		"father names":    fatherNames,
		"mother names":    motherNames,
		"surnames":        surnames,
		"absence remarks": absenceRemarks,
	}
	for i, p := range places {
		pools[fmt.Sprintf("place %d", i)] = []LocalizedValue{p.City, p.State}
	}
	for name, pool := range pools {
		if len(pool) == 0 {
			return errors.Wrap(ErrPoolExhausted, name)
		}
		for i, v := range pool {
			if !v.Complete() {
				return errors.Wrapf(ErrPoolExhausted, "%s[%d] misses a locale", name, i)
			}
		}
	}
	if len(places) == 0 || len(classes) == 0 || len(sections) == 0 || len(staffRoles) == 0 {
		return errors.Wrap(ErrPoolExhausted, "enumerations")
	}
	return nil
}

func pick(rnd *Rand, pool []LocalizedValue) LocalizedValue {
	return pool[rnd.Intn(len(pool))]
}

func joinNames(parts ...LocalizedValue) LocalizedValue {
	var v LocalizedValue
	for i, p := range parts {
		if i > 0 {
			v.EN += " "
			v.HI += " "
			v.UR += " "
		}
		v.EN += p.EN
		v.HI += p.HI
		v.UR += p.UR
	}
	return v
}

func address(house int, p place) LocalizedValue {
	return LocalizedValue{
		EN: fmt.Sprintf("House No. %d, %s, %s", house, p.City.EN, p.State.EN),
		HI: fmt.Sprintf("मकान नं. %d, %s, %s", house, p.City.HI, p.State.HI),
		UR: fmt.Sprintf("مکان نمبر %d، %s، %s", house, p.City.UR, p.State.UR),
	}
}
