package spellcheck

// wordFrequencies is the built-in dictionary: everyday vocabulary patients
// use plus the clinical terms the normalizer is expected to produce.
// Frequencies are coarse ranks used only to break ties between correction
// candidates at the same edit distance.
var wordFrequencies = map[string]int{
	// function words and everyday vocabulary
	"the": 100, "and": 98, "for": 96, "have": 94, "has": 92, "had": 90,
	"been": 88, "with": 86, "when": 84, "this": 82, "that": 80, "was": 78,
	"are": 76, "but": 74, "not": 72, "all": 70, "can": 68, "cannot": 66,
	"very": 64, "really": 62, "also": 60, "since": 58, "after": 56,
	"before": 54, "about": 52, "again": 50, "now": 48, "today": 46,
	"yesterday": 44, "morning": 42, "evening": 40, "night": 38, "week": 36,
	"weeks": 35, "day": 34, "days": 33, "hour": 32, "hours": 31,
	"minute": 30, "minutes": 29, "month": 28, "months": 27, "year": 26,
	"feel": 60, "feels": 58, "feeling": 56, "felt": 54, "get": 52,
	"getting": 50, "got": 48, "going": 46, "went": 44, "keep": 42,
	"keeps": 40, "still": 38, "much": 36, "more": 34, "worse": 60,
	"better": 58, "bad": 56, "badly": 30, "good": 28, "little": 26,
	"while": 24, "every": 22, "sometimes": 40, "always": 38, "never": 36,
	"something": 34, "nothing": 32, "anything": 30, "like": 44,
	"just": 42, "some": 40, "most": 26, "than": 24, "then": 23,
	"them": 22, "they": 21, "there": 20, "here": 19, "where": 18,
	"what": 17, "which": 16, "from": 50, "into": 30, "over": 28,
	"under": 26, "around": 24, "inside": 22, "outside": 20,
	"time": 34, "times": 32, "lot": 30, "start": 28, "started": 48,
	"starting": 26, "stop": 24, "stopped": 22, "help": 20, "need": 30,
	"want": 28, "take": 26, "taking": 40, "took": 24, "make": 22,
	"makes": 21, "eat": 30, "eating": 28, "ate": 26, "drink": 24,
	"drinking": 22, "sleep": 44, "sleeping": 42, "slept": 40,
	"wake": 20, "work": 18, "working": 17, "walk": 30, "walking": 28,
	"having": 60, "unable": 26, "hard": 24, "difficult": 22,

	// body and symptoms
	"head": 70, "headache": 68, "headaches": 66, "migraine": 64,
	"chest": 70, "stomach": 68, "abdomen": 66, "belly": 40, "back": 62,
	"neck": 60, "throat": 58, "arm": 56, "arms": 54, "leg": 52,
	"legs": 50, "knee": 48, "knees": 46, "foot": 44, "feet": 42,
	"hand": 40, "hands": 38, "shoulder": 36, "shoulders": 34,
	"eye": 32, "eyes": 30, "ear": 28, "ears": 26, "nose": 24,
	"mouth": 22, "skin": 20, "heart": 44, "lungs": 42, "side": 30,
	"pain": 80, "painful": 78, "hurt": 76, "hurts": 74, "hurting": 72,
	"ache": 70, "aches": 68, "aching": 66, "sore": 64, "soreness": 30,
	"fever": 80, "feverish": 40, "chills": 38, "sweating": 36,
	"cough": 70, "coughing": 68, "sneezing": 36, "breath": 66,
	"breathe": 64, "breathing": 62, "wheezing": 34, "congestion": 32,
	"nausea": 60, "nauseous": 58, "vomit": 56, "vomiting": 54,
	"vomited": 52, "diarrhea": 50, "constipated": 48, "constipation": 46,
	"dizzy": 44, "dizziness": 42, "faint": 26, "fatigue": 40,
	"fatigued": 38, "tired": 36, "weak": 34, "weakness": 32,
	"rash": 30, "itchy": 28, "itching": 26, "swollen": 24,
	"swelling": 22, "bleeding": 20, "blood": 44, "bruise": 18,
	"cramp": 16, "cramps": 15, "numb": 14, "numbness": 13,
	"tingling": 12, "burning": 20, "sharp": 24, "dull": 18,
	"severe": 50, "severely": 48, "mild": 26, "moderate": 24,
	"appetite": 22, "discharge": 20, "nasal": 18, "unwell": 16,
	"malaise": 14, "symptom": 30, "symptoms": 28,

	// measurements and clinical context
	"pressure": 40, "temperature": 38, "degrees": 36, "pulse": 34,
	"rate": 32, "doctor": 44, "nurse": 26, "hospital": 24,
	"medication": 30, "medications": 28, "medicine": 26, "dose": 24,
	"tablet": 20, "tablets": 19, "pill": 18, "pills": 17,
	"patient": 22, "allergy": 16, "allergic": 15, "infection": 28,
	"injury": 20, "injured": 18,
}
