package matching

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"alfredoptarigan/resume-matcher/internal/models"
)

const (
	equivalenceStep     = 0.03
	MaxEquivalenceBonus = 0.15
)

var techToken = regexp.MustCompile(`[a-z0-9]+(?:[.\-][a-z0-9]+)*`)

// shortTokens are kept even though they are shorter than two characters or ambiguous.
var shortTokens = map[string]bool{"js": true, "ts": true, "go": true, "r": true, "c": true}

type equivalenceGroup struct {
	name    string
	members []string
}

var defaultGroups = []equivalenceGroup{
	{"frontend_framework", []string{"react", "vue", "angular", "svelte", "preact", "ember", "backbone"}},
	{"meta_framework", []string{"next.js", "nuxt", "remix", "gatsby", "sveltekit", "astro"}},
	{"backend_js", []string{"node.js", "express", "nestjs", "koa", "fastify", "hapi", "deno"}},
	{"backend_python", []string{"django", "flask", "fastapi", "tornado", "pyramid"}},
	{"backend_jvm", []string{"spring", "ktor", "micronaut", "quarkus", "dropwizard"}},
	{"backend_go", []string{"gin", "echo", "fiber", "chi", "gorilla", "beego"}},
	{"backend_ruby", []string{"rails", "sinatra", "hanami"}},
	{"backend_php", []string{"laravel", "symfony", "codeigniter", "cakephp"}},
	{"relational_db", []string{"postgresql", "mysql", "mariadb", "oracle", "mssql", "sqlite", "aurora"}},
	{"nosql_db", []string{"mongodb", "dynamodb", "cassandra", "couchdb", "firestore", "couchbase", "hbase"}},
	{"cache", []string{"redis", "memcached", "valkey", "hazelcast"}},
	{"cloud", []string{"aws", "gcp", "azure", "ncp", "alicloud"}},
	{"container", []string{"docker", "podman", "containerd"}},
	{"orchestration", []string{"kubernetes", "nomad", "openshift", "swarm", "eks", "gke", "aks"}},
	{"ci_cd", []string{"jenkins", "circleci", "travis", "argocd", "teamcity", "bamboo", "buildkite", "spinnaker"}},
	{"css_framework", []string{"tailwind", "bootstrap", "bulma", "materialize", "styled-components", "sass"}},
	{"state_management", []string{"redux", "mobx", "zustand", "recoil", "vuex", "pinia", "jotai", "ngrx"}},
	{"unit_test", []string{"jest", "mocha", "vitest", "jasmine", "junit", "pytest", "testng"}},
	{"e2e_test", []string{"cypress", "playwright", "selenium", "puppeteer", "webdriverio"}},
	{"message_queue", []string{"kafka", "rabbitmq", "activemq", "sqs", "nats", "pulsar", "kinesis"}},
	{"search_engine", []string{"elasticsearch", "opensearch", "solr", "meilisearch", "algolia", "typesense"}},
	{"mobile", []string{"flutter", "react-native", "ionic", "xamarin"}},
	{"orm", []string{"hibernate", "jpa", "sequelize", "typeorm", "prisma", "sqlalchemy", "gorm", "mybatis", "querydsl"}},
	{"lang_jvm", []string{"java", "kotlin", "scala", "groovy", "clojure"}},
	{"lang_js", []string{"javascript", "typescript"}},
	{"lang_systems_c", []string{"c", "cpp"}},
	{"lang_systems_modern", []string{"go", "rust"}},
	{"lang_data", []string{"python", "r", "julia"}},
	{"lang_scripting", []string{"ruby", "php", "perl"}},
	{"lang_apple", []string{"swift", "objective-c"}},
}

var defaultAliases = map[string]string{
	"reactjs":      "react",
	"react.js":     "react",
	"vuejs":        "vue",
	"vue.js":       "vue",
	"angularjs":    "angular",
	"nextjs":       "next.js",
	"nuxtjs":       "nuxt",
	"nuxt.js":      "nuxt",
	"nodejs":       "node.js",
	"node":         "node.js",
	"expressjs":    "express",
	"nest.js":      "nestjs",
	"golang":       "go",
	"js":           "javascript",
	"ts":           "typescript",
	"postgres":     "postgresql",
	"mongo":        "mongodb",
	"k8s":          "kubernetes",
	"tailwindcss":  "tailwind",
	"spring-boot":  "spring",
	"springboot":   "spring",
	"elastic":      "elasticsearch",
	"objc":         "objective-c",
	"c-plus-plus":  "cpp",
	"google-cloud": "gcp",
	"amazon-aws":   "aws",
}

// EquivalenceResolver finds technologies a job description asks for that the
// resume covers with an interchangeable alternative. Tables are read-only after
// construction.
type EquivalenceResolver struct {
	groupOf map[string]string
	aliases map[string]string
}

func NewEquivalenceResolver() *EquivalenceResolver {
	r, err := newEquivalenceResolver(defaultGroups, defaultAliases)
	if err != nil {
		panic(err)
	}
	return r
}

func newEquivalenceResolver(groups []equivalenceGroup, aliases map[string]string) (*EquivalenceResolver, error) {
	groupOf := make(map[string]string)
	for _, g := range groups {
		for _, m := range g.members {
			if prev, dup := groupOf[m]; dup {
				return nil, fmt.Errorf("technology %q is in both %q and %q", m, prev, g.name)
			}
			groupOf[m] = g.name
		}
	}
	return &EquivalenceResolver{groupOf: groupOf, aliases: aliases}, nil
}

// Canonical maps an alias to its canonical technology name.
func (r *EquivalenceResolver) Canonical(token string) string {
	if c, ok := r.aliases[token]; ok {
		return c
	}
	return token
}

// GroupOf returns the equivalence group of a token, if any.
func (r *EquivalenceResolver) GroupOf(token string) (string, bool) {
	g, ok := r.groupOf[r.Canonical(token)]
	return g, ok
}

// Tokens extracts candidate technology keywords from text in first-seen order.
// Tokens shorter than two characters are dropped unless explicitly allowed.
func (r *EquivalenceResolver) Tokens(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range techToken.FindAllString(strings.ToLower(text), -1) {
		if len(tok) < 2 && !shortTokens[tok] {
			continue
		}
		tok = r.Canonical(tok)
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}

// Resolve returns the bonus and the de-duplicated (jd_required, resume_has) pairs.
// A pair is recorded for every job description technology and every different
// resume technology in the same group.
func (r *EquivalenceResolver) Resolve(resumeText, jdText string) (float64, []models.EquivalenceMatch) {
	resumeByGroup := make(map[string][]string)
	for _, tok := range r.Tokens(resumeText) {
		if g, ok := r.groupOf[tok]; ok {
			resumeByGroup[g] = append(resumeByGroup[g], tok)
		}
	}

	matches := []models.EquivalenceMatch{}
	seen := make(map[[2]string]bool)
	for _, jdTok := range r.Tokens(jdText) {
		g, ok := r.groupOf[jdTok]
		if !ok {
			continue
		}
		for _, resumeTok := range resumeByGroup[g] {
			if resumeTok == jdTok {
				continue
			}
			key := [2]string{jdTok, resumeTok}
			if seen[key] {
				continue
			}
			seen[key] = true
			matches = append(matches, models.EquivalenceMatch{JDRequired: jdTok, ResumeHas: resumeTok, Group: g})
		}
	}

	return EquivalenceBonus(len(matches)), matches
}

// EquivalenceBonus is 0.03 per distinct match, capped at 0.15.
func EquivalenceBonus(count int) float64 {
	if count <= 0 {
		return 0
	}
	return math.Min(MaxEquivalenceBonus, equivalenceStep*float64(count))
}
