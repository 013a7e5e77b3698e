package rules

const (
	SeniorityJunior     = "Junior"
	SeniorityMid        = "Mid-level"
	SenioritySenior     = "Senior"
	SeniorityManagement = "Management"

	CategoryOther = "Other"

	EmploymentFullTime   = "Full-time"
	EmploymentContract   = "Contract"
	EmploymentPartTime   = "Part-time"
	EmploymentInternship = "Internship"

	ArrangementRemote = "Remote"
	ArrangementHybrid = "Hybrid"
	ArrangementOnSite = "On-site"

	RegionRemote = "N/A"
	RegionOther  = "Other"

	SizeUnknown = "Unknown"
)

// Default returns a fresh copy of the built-in tables. Callers may mutate the
// result.
func Default() *Set {
	return &Set{
		ColumnMapping: defaultColumnMapping(),

		Seniority: []Rule{
			{Label: SeniorityJunior, Triggers: []string{"junior", "jr", "entry", "associate", "i ", "intern"}},
			{Label: SeniorityMid, Triggers: []string{"ii ", "mid", "intermediate"}},
			{Label: SenioritySenior, Triggers: []string{"senior", "sr", "iii ", "lead", "principal", "staff"}},
			{Label: SeniorityManagement, Triggers: []string{"manager", "director", "head of", "vp", "vice president", "chief", "cto", "cdo"}},
		},
		DefaultSeniority: SeniorityMid,

		JobCategories: []Rule{
			{Label: "Data Analyst", Triggers: []string{
				"data analyst", "business analyst", "analytics analyst",
				"marketing analyst", "financial analyst", "product analyst",
			}},
			{Label: "Data Scientist", Triggers: []string{
				"data scientist", "machine learning scientist", "research scientist",
				"applied scientist", "quantitative analyst",
			}},
			{Label: "Data Engineer", Triggers: []string{
				"data engineer", "etl developer", "big data engineer",
				"platform engineer", "pipeline engineer",
			}},
			{Label: "Analytics Engineer", Triggers: []string{"analytics engineer", "bi engineer", "data analytics engineer"}},
			{Label: "BI Analyst", Triggers: []string{
				"bi analyst", "business intelligence analyst", "bi developer",
				"tableau developer", "power bi developer",
			}},
			{Label: "ML Engineer", Triggers: []string{"machine learning engineer", "ml engineer", "mlops engineer", "ai engineer"}},
			{Label: "Data Manager", Triggers: []string{
				"data manager", "analytics manager", "data science manager",
				"bi manager", "director of", "head of data", "chief data officer",
			}},
		},
		DefaultJobCategory: CategoryOther,

		EmploymentTypes: []Rule{
			{Label: EmploymentFullTime, Triggers: []string{"full-time", "full time", "ft", "permanent", "regular"}},
			{Label: EmploymentContract, Triggers: []string{"contract", "contractor", "temp", "temporary", "consultant"}},
			{Label: EmploymentPartTime, Triggers: []string{"part-time", "part time", "pt"}},
			{Label: EmploymentInternship, Triggers: []string{"intern", "internship", "co-op", "coop"}},
		},
		DefaultEmploymentType:  EmploymentFullTime,
		DefaultWorkArrangement: ArrangementOnSite,

		RemoteKeywords: []string{
			"remote", "work from home", "wfh", "telecommute", "virtual",
			"anywhere", "distributed", "100% remote",
		},
		HybridKeywords: []string{"hybrid"},

		Taxonomy: []SkillCategory{
			{Name: "Programming Languages", Skills: []string{
				"Python", "R", "SQL", "Java", "Scala", "C++", "JavaScript", "Julia",
				"MATLAB", "SAS", "Perl", "Ruby", "Go", "Rust",
			}},
			{Name: "Databases", Skills: []string{
				"MySQL", "PostgreSQL", "MongoDB", "Cassandra", "Redis", "Oracle",
				"SQL Server", "SQLite", "DynamoDB", "BigQuery", "Snowflake", "Redshift",
			}},
			{Name: "BI Tools", Skills: []string{
				"Tableau", "Power BI", "Looker", "QlikView", "Qlik Sense", "Sisense",
				"Domo", "Metabase", "Chartio", "Mode Analytics",
			}},
			{Name: "Cloud Platforms", Skills: []string{
				"AWS", "Azure", "GCP", "Google Cloud", "IBM Cloud", "Oracle Cloud",
				"Databricks", "Snowflake",
			}},
			{Name: "Data Engineering", Skills: []string{
				"Spark", "Hadoop", "Kafka", "Airflow", "Hive", "Presto", "Flink",
				"Beam", "Luigi", "Prefect", "dbt", "Fivetran", "Talend", "Informatica",
			}},
			{Name: "Machine Learning", Skills: []string{
				"TensorFlow", "PyTorch", "Keras", "Scikit-learn", "XGBoost", "LightGBM",
				"H2O", "MLflow", "Kubeflow", "SageMaker", "AutoML",
			}},
			{Name: "Analytics Tools", Skills: []string{
				"Excel", "Google Sheets", "Jupyter", "RStudio", "Stata", "SPSS",
				"Alteryx", "Knime", "RapidMiner",
			}},
			{Name: "Data Visualization", Skills: []string{
				"D3.js", "Plotly", "Matplotlib", "Seaborn", "ggplot2", "Bokeh",
				"Shiny", "Dash", "Streamlit",
			}},
			{Name: "Version Control", Skills: []string{"Git", "GitHub", "GitLab", "Bitbucket", "SVN"}},
			{Name: "Statistics", Skills: []string{
				"Statistics", "A/B Testing", "Hypothesis Testing", "Regression",
				"Time Series", "Bayesian", "Experimental Design",
			}},
		},

		CompanySizes: map[string]string{
			"1 to 50 employees":       "1-50",
			"51 to 200 employees":     "51-200",
			"201 to 500 employees":    "201-500",
			"501 to 1000 employees":   "501-1000",
			"1001 to 5000 employees":  "1001-5000",
			"5001 to 10000 employees": "5001-10000",
			"10000+ employees":        "10000+",
			"Unknown":                 SizeUnknown,
		},

		Regions: defaultRegions(),
	}
}

// defaultColumnMapping covers the flat export ("Job Title") and the nested
// scrape ("gaTrackerData.jobTitle"). Backup sources keep a _backup suffix so
// the parser can fall back to them.
func defaultColumnMapping() map[string]string {
	return map[string]string{
		// flat
		"Job Title":         "job_title",
		"Salary Estimate":   "salary_estimate",
		"Job Description":   "job_description",
		"Rating":            "company_rating",
		"Company Name":      "company_name",
		"Location":          "location",
		"Headquarters":      "headquarters",
		"Size":              "company_size",
		"Founded":           "company_founded",
		"Type of ownership": "ownership_type",
		"Industry":          "industry",
		"Sector":            "sector",
		"Revenue":           "revenue",
		"Easy Apply":        "easy_apply",
		"Employment Type":   "employment_type",

		// nested
		"gaTrackerData.jobTitle":     "job_title",
		"header.jobTitle":            "job_title_backup",
		"gaTrackerData.empName":      "company_name",
		"header.employerName":        "company_name_backup",
		"header.location":            "location",
		"map.location":               "location_backup",
		"header.salaryLow":           "salary_low",
		"header.salaryHigh":          "salary_high",
		"header.payCurrency":         "salary_currency",
		"header.payLow":              "pay_low",
		"header.payHigh":             "pay_high",
		"header.payPeriod":           "pay_period",
		"header.easyApply":           "easy_apply",
		"job.description":            "job_description",
		"job.jobType":                "employment_type",
		"overview.size":              "company_size",
		"overview.foundedYear":       "company_founded",
		"overview.type":              "ownership_type",
		"overview.industry":          "industry",
		"overview.sector":            "sector",
		"overview.revenue":           "revenue",
		"overview.hq":                "headquarters",
		"rating.starRating":          "company_rating",
		"map.lat":                    "latitude",
		"map.lng":                    "longitude",
		"gaTrackerData.industry":     "industry_backup",
		"gaTrackerData.sector":       "sector_backup",
		"gaTrackerData.location":     "location_city",
		"gaTrackerData.locationType": "location_type",
		"header.rating":              "company_rating_backup",
		"header.normalizedJobTitle":  "normalized_job_title",
		"header.applicationUrl":      "application_url",
		"header.posted":              "posted_date",
	}
}

func defaultRegions() map[string]string {
	regions := make(map[string]string)
	assign := func(region string, states ...string) {
		for _, s := range states {
			regions[s] = region
		}
	}
	assign("Northeast", "CT", "ME", "MA", "NH", "RI", "VT", "NJ", "NY", "PA")
	assign("Midwest", "IL", "IN", "MI", "OH", "WI", "IA", "KS", "MN", "MO", "NE", "ND", "SD")
	assign("South", "DE", "FL", "GA", "MD", "NC", "SC", "VA", "DC", "WV", "AL", "KY", "MS", "TN", "AR", "LA", "OK", "TX")
	assign("West", "AZ", "CO", "ID", "MT", "NV", "NM", "UT", "WY", "AK", "CA", "HI", "OR", "WA")
	return regions
}
