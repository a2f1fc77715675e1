package textentity

type serviceKeyword struct {
	keyword  string
	services []string
}

// serviceKeywords is scanned in order; every keyword found in the text contributes its labels.
var serviceKeywords = []serviceKeyword{
	{"פצע", []string{"WOUND_CARE", "WOUND_TREATMENT"}},
	{"פצעים", []string{"WOUND_CARE", "WOUND_TREATMENT"}},
	{"wound", []string{"WOUND_CARE", "WOUND_TREATMENT"}},
	{"כוויה", []string{"BURN_TREATMENT"}},
	{"burn", []string{"BURN_TREATMENT"}},
	{"סוכרת", []string{"DIABETIC_WOUND_TREATMENT"}},
	{"diabetic", []string{"DIABETIC_WOUND_TREATMENT"}},

	{"תרופות", []string{"MEDICATION", "MEDICATION_ARRANGEMENT"}},
	{"medication", []string{"MEDICATION", "MEDICATION_ARRANGEMENT"}},
	{"medicine", []string{"MEDICATION", "MEDICATION_ARRANGEMENT"}},

	{"צנתר", []string{"CENTRAL_CATHETER_TREATMENT", "CATHETER_INSERTION_REPLACEMENT"}},
	{"catheter", []string{"CENTRAL_CATHETER_TREATMENT", "CATHETER_INSERTION_REPLACEMENT"}},
	{"סטומה", []string{"STOMA_TREATMENT"}},
	{"stoma", []string{"STOMA_TREATMENT"}},

	{"תינוק", []string{"HOME_NEWBORN_VISIT", "BREASTFEEDING_CONSULTATION"}},
	{"baby", []string{"HOME_NEWBORN_VISIT", "BREASTFEEDING_CONSULTATION"}},
	{"הנקה", []string{"BREASTFEEDING_CONSULTATION"}},
	{"breastfeeding", []string{"BREASTFEEDING_CONSULTATION"}},
	{"ברית", []string{"DAY_NIGHT_CIRCUMCISION_NURSE"}},
	{"circumcision", []string{"DAY_NIGHT_CIRCUMCISION_NURSE"}},

	{"דם", []string{"BLOOD_TESTS"}},
	{"blood", []string{"BLOOD_TESTS"}},
	{"בדיקה", []string{"BLOOD_TESTS", "HANDLING_AND_TRACKING_METRICS"}},
	{"test", []string{"BLOOD_TESTS", "HANDLING_AND_TRACKING_METRICS"}},

	{"ניתוח", []string{"FOLLOW_UP_AFTER_SURGERY"}},
	{"surgery", []string{"FOLLOW_UP_AFTER_SURGERY"}},
	{"אחרי ניתוח", []string{"FOLLOW_UP_AFTER_SURGERY"}},
	{"post surgery", []string{"FOLLOW_UP_AFTER_SURGERY"}},

	{"ליווי", []string{"ESCORTED_BY_NURSE", "PRIVATE_SECURITY_HOSPITAL", "PRIVATE_SECURITY_HOME"}},
	{"escort", []string{"ESCORTED_BY_NURSE", "PRIVATE_SECURITY_HOSPITAL"}},
	{"שמירה", []string{"PRIVATE_SECURITY_HOSPITAL", "PRIVATE_SECURITY_HOME"}},
	{"security", []string{"PRIVATE_SECURITY_HOSPITAL", "PRIVATE_SECURITY_HOME"}},
}

type localityName struct {
	key  string
	name string
}

// hebrewLocalities maps Hebrew names to the English form used in candidate records.
// Checked before englishLocalities; the first entry contained in the text wins.
var hebrewLocalities = []localityName{
	{"תל אביב", "Tel Aviv"},
	{"ירושלים", "Jerusalem"},
	{"חיפה", "Haifa"},
	{"נתניה", "Nethanya"},
	{"פתח תקווה", "Petach Tikva"},
	{"ראשון לציון", "Rishon LeTsiyon"},
	{"רמת גן", "Ramat-Gan"},
	{"בת ים", "Bat-Yam"},
	{"חדרה", "Hadera"},
	{"אשדוד", "Ashdod"},
	{"אשקלון", "Ashkelon"},
	{"באר שבע", "Beer Sheva"},
	{"רחובות", "Rehovoth"},
}

var englishLocalities = []localityName{
	{"tel aviv", "Tel Aviv"},
	{"jerusalem", "Jerusalem"},
	{"haifa", "Haifa"},
	{"netanya", "Netanya"},
	{"herzliya", "Herzliya"},
	{"petach tikva", "Petach Tikva"},
	{"rishon lezion", "Rishon Lezion"},
	{"ramat gan", "Ramat Gan"},
	{"bat yam", "Bat Yam"},
	{"hadera", "Hadera"},
}

var urgencyMarkers = []string{"דחוף", "מיידי", "עכשיו", "urgent", "now", "immediately", "asap"}
