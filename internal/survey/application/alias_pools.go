package application

import "golang.org/x/text/language"

// aliasLanguages is ordered for language.NewMatcher; the first entry is the fallback.
var aliasLanguages = []language.Tag{
	language.English,
	language.Japanese,
	language.Spanish,
	language.French,
	language.German,
	language.Chinese,
}

// Creator alias word pools. Entries are ASCII so aliases stay URL-safe.
var aliasPools = map[language.Tag][]string{
	language.English: {
		"BraveOtter", "CleverFox", "GentleBear", "HappyPanda", "JollyKoala",
		"LuckyRabbit", "MightyOwl", "QuietDeer", "SunnyDolphin", "SwiftFalcon",
		"TinyPenguin", "WiseTurtle", "CosmicCat", "MerryHedgehog", "BoldLynx",
	},
	language.Japanese: {
		"GenkiTanuki", "NikoNeko", "YukiUsagi", "HoshiKitsune", "SoraTsubame",
		"MoriKuma", "UmiKame", "HanaRisu", "KazeTaka", "TsukiFukurou",
		"KumoHitsuji", "SakuraShika", "IwaKaeru", "NijiKoi", "YamaSaru",
	},
	language.Spanish: {
		"ZorroAlegre", "GatoValiente", "OsoTranquilo", "LoboSabio", "ConejoFeliz",
		"BuhoListo", "DelfinRapido", "TortugaCalma", "HalconBravo", "PandaDulce",
		"LinceAgil", "PatoRisueno",
	},
	language.French: {
		"RenardMalin", "ChatJoyeux", "OursDoux", "LoupSage", "LapinRieur",
		"HibouCalme", "DauphinVif", "TortueZen", "FauconFier", "PandaGentil",
		"LynxRuse", "CanardHeureux",
	},
	language.German: {
		"FlinkerFuchs", "FroheKatze", "SanfterBaer", "WeiserWolf", "LustigerHase",
		"KlugeEule", "SchnellerDelfin", "RuhigeSchildkroete", "MutigerFalke", "NetterPanda",
		"WilderLuchs", "FroeheEnte",
	},
	language.Chinese: {
		"KuaiLeXiongMao", "CongMingHuLi", "WenRouXiong", "ZhiHuiLang", "HuoPoTuZi",
		"AnJingMaoTouYing", "FeiKuaiHaiTun", "ManManGui", "YongGanYing", "KeAiMao",
		"QingFengHe", "XiaoLongXia",
	},
}
