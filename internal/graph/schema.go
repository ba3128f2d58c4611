package graph

// Schema is the GraphQL schema declaration: entities, fields, and
// operation signatures. Types only; all behavior lives in the resolvers.
//
// addBook's argument presence is enforced here by the non-null
// declarations, so a published year of 0 is valid input and never
// mistaken for a missing argument.
const Schema = `
	schema {
		query: Query
		mutation: Mutation
		subscription: Subscription
	}

	type Query {
		bookCount: Int!
		authorCount: Int!
		allBooks(genre: String): [Book!]!
		allAuthors: [Author!]!
		me: User
	}

	type Mutation {
		addBook(
			title: String!
			author: String!
			published: Int!
			genres: [String!]!
		): Book
		editAuthor(name: String!, setBornTo: Int): Author
		createUser(username: String!, password: String!, favoriteGenre: String): User
		login(username: String!, password: String!): Token
	}

	type Subscription {
		bookAdded: Book!
	}

	type Book {
		id: ID!
		title: String!
		published: Int!
		author: Author!
		genres: [String!]!
	}

	type Author {
		id: ID!
		name: String!
		born: Int
		bookCount: Int!
	}

	type User {
		id: ID!
		username: String!
		favoriteGenre: String
		books: [Book!]!
	}

	type Token {
		value: String!
	}
`
